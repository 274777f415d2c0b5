package llm

import (
	"context"
	"fmt"
)

// StubClient answers without a network call. Used for local runs and demos.
type StubClient struct{}

func NewStubClient() *StubClient {
	return &StubClient{}
}

func (c *StubClient) Complete(_ context.Context, _, user string) (string, error) {
	return fmt.Sprintf("Stub suggestion (no model configured).\n\nRequest received: %s\n\n"+
		"Offer a small portion of a familiar food alongside one new food, and consult your pediatrician for specific concerns.", user), nil
}

func (c *StubClient) Model() string {
	return "stub"
}
