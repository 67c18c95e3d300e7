package llm

import "context"

// MockCaller is a test double for the text model. Responses are returned in
// order; the last one repeats once the list is exhausted.
type MockCaller struct {
	Responses  []string
	Err        error
	Calls      int
	LastPrompt string
}

// NewMockCaller creates a MockCaller that returns the given responses.
func NewMockCaller(responses ...string) *MockCaller {
	return &MockCaller{Responses: responses}
}

func (m *MockCaller) Generate(_ context.Context, prompt string) (string, error) {
	m.Calls++
	m.LastPrompt = prompt
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	i := m.Calls - 1
	if i >= len(m.Responses) {
		i = len(m.Responses) - 1
	}
	return m.Responses[i], nil
}

// MockVisionCaller is a test double for the vision model.
type MockVisionCaller struct {
	Response   string
	Err        error
	Calls      int
	LastImages int
}

func (m *MockVisionCaller) GenerateMultimodal(_ context.Context, _ string, images [][]byte) (string, error) {
	m.Calls++
	m.LastImages = len(images)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}
