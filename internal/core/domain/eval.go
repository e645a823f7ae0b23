package domain

// EvalCase is one golden question.
type EvalCase struct {
	ID       string   `json:"id" yaml:"id"`
	Question string   `json:"question" yaml:"question"`
	MustCite []string `json:"must_cite" yaml:"must_cite"`
}

// EvalResult is the outcome of one golden question.
type EvalResult struct {
	ID               string   `json:"id"`
	Question         string   `json:"question"`
	MustCite         []string `json:"must_cite"`
	RetrievedSources []string `json:"retrieved_sources"`
	Pass             bool     `json:"pass"`
	AnswerPreview    string   `json:"answer_preview"`
}

// EvalReport aggregates an evaluation run.
type EvalReport struct {
	Total    int          `json:"total"`
	Passed   int          `json:"passed"`
	PassRate float64      `json:"pass_rate"`
	Results  []EvalResult `json:"results"`
}
