package domain

// DimensionScore is one sub-dimension of an AI evaluation, scored 0-10.
type DimensionScore struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

// EvaluationDimensions holds the five fixed sub-dimension scores.
type EvaluationDimensions struct {
	Completion DimensionScore `json:"completion"`
	Technique  DimensionScore `json:"technique"`
	Creativity DimensionScore `json:"creativity"`
	Expression DimensionScore `json:"expression"`
	Detail     DimensionScore `json:"detail"`
}

// Evaluation is the structured result of AI-reviewing a submission:
// an overall 0-100 score, five 0-10 sub-dimensions, and free-text notes.
type Evaluation struct {
	Score        int                  `json:"score"`
	Dimensions   EvaluationDimensions `json:"dimensions"`
	Highlights   []string             `json:"highlights"`
	Improvements []string             `json:"improvements"`
	Overall      string               `json:"overall"`
}
