package model

// TestCase is a single judge test: raw JSON input arguments and the
// expected result. The server never interprets either side.
type TestCase struct {
	Input    []interface{} `json:"input" bson:"input"`
	Expected interface{}   `json:"expected" bson:"expected"`
}

// Question is immutable reference data, seeded once. Players reference it by
// its opaque ID; the title is for display only.
type Question struct {
	ID           string     `json:"id" bson:"_id,omitempty"`
	Title        string     `json:"title" bson:"title"`
	Description  string     `json:"description" bson:"description"`
	Difficulty   string     `json:"difficulty" bson:"difficulty"`
	FunctionName string     `json:"functionName" bson:"functionName"`
	Parameters   []string   `json:"parameters" bson:"parameters"`
	ReturnType   string     `json:"returnType" bson:"returnType"`
	TestCases    []TestCase `json:"testCases" bson:"testCases"`
	StarterCode  string     `json:"starterCode" bson:"starterCode"`
}
