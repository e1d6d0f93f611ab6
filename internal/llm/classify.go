package llm

import (
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ziadkadry99/docchat/internal/errs"
)

// classifyOpenAI maps go-openai errors onto the generation error taxonomy.
func classifyOpenAI(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return errs.FromStatus(errs.KindGeneration, op, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return errs.FromStatus(errs.KindGeneration, op, reqErr.HTTPStatusCode, reqErr.Error())
	}
	return errs.FromTransport(errs.KindGeneration, op, err)
}
