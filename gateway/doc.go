// Package gateway turns raw, untrusted text into stored documents.
//
// A Gateway parses the text as a JSON object, honors an optional _etag
// member as the expected version, and writes through a DocumentWriter
// such as *docket.Client:
//
//	gw, err := gateway.New(client)
//	if err != nil {
//	    return err
//	}
//	res, err := gw.Submit(ctx, `{"id": "a1", "title": "hello"}`)
//	var submitErr *gateway.SubmitError
//	if errors.As(err, &submitErr) {
//	    fmt.Println(submitErr.Message) // show submitErr.Input again for editing
//	}
//
// Every failure is a *SubmitError matching exactly one of ErrInvalidInput,
// ErrMalformedJSON or ErrWriteFailed.
package gateway
