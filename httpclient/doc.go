// Package httpclient is the JSON-over-HTTP transport used by the LLM
// dialect adapters.
//
// Failures are returned as *errors.AppError so the resilience layer can
// decide what to retry: transport failures and 5xx/429 replies are
// retryable, other 4xx replies are not.
//
//	client, err := httpclient.New(httpclient.Config{
//	    Name:    "openai",
//	    BaseURL: "https://api.openai.com/v1",
//	    Auth:    httpclient.BearerAuth(key),
//	    Retry:   httpclient.DefaultRetryConfig(),
//	})
//
//	resp, err := httpclient.Post[chatResponse](ctx, client, "/chat/completions", body)
package httpclient
