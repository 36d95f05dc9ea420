// Package static provides a mock LLM provider that returns a static,
// pre-determined completion. This is useful for testing the workflow
// and other parts of the system without making live API calls.
package static
