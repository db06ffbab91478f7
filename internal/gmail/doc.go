// Package gmail provides read-only access to Gmail message metadata.
//
// The client lists the newest message ids of the authenticated user and
// fetches the Subject and From headers of each one, which is all that
// classification needs. Message bodies are never requested.
//
// Authentication is handled by the google package, which supplies the
// authenticated *http.Client passed in Config.
//
// Example usage:
//
//	httpClient, err := auth.HTTPClient(ctx, "default")
//	if err != nil {
//	    return err
//	}
//	client, err := gmail.NewClient(ctx, gmail.Config{Account: "default", HTTPClient: httpClient})
//	if err != nil {
//	    return err
//	}
//	summaries, err := client.FetchSummaries(ctx, 10)
package gmail
