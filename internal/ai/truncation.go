package ai

import "context"

// GenerateWithTruncationRetry calls the client once and, if the provider
// reports an output-length cutoff, retries exactly once with the token budget
// doubled and capped at the client maximum. A still-truncated retry returns
// its partial text with Truncated set. No retry is made when the budget is
// already at the cap.
func GenerateWithTruncationRetry(ctx context.Context, c Client, in Input) (*Output, error) {
	out, err := c.Generate(ctx, in)
	if err != nil || !out.Truncated {
		return out, err
	}

	grown := growBudget(in.MaxTokens, c.MaxOutputTokens())
	if grown <= in.MaxTokens {
		return out, nil
	}
	in.MaxTokens = grown
	retry, err := c.Generate(ctx, in)
	if err != nil {
		// the partial first reply is still usable by the parser
		return out, nil
	}
	if retry.Truncated && len(retry.Text) < len(out.Text) {
		return out, nil
	}
	return retry, nil
}

func growBudget(current, ceiling int) int {
	if current <= 0 {
		return ceiling
	}
	next := current * 2
	if ceiling > 0 && next > ceiling {
		next = ceiling
	}
	return next
}
