package pagination

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/photo-fetcher/pkg/client"
)

// IssueCategory is the display category of a failed fetch.
type IssueCategory string

const (
	// NetworkIssue is retryable and shows a retry affordance.
	NetworkIssue IssueCategory = "network"

	// GenericIssue shows a message; retry re-attempts the same operation.
	GenericIssue IssueCategory = "generic"
)

// Issue is the user-facing description of a failed fetch.
type Issue struct {
	Category IssueCategory    `json:"category"`
	Title    string           `json:"title"`
	Message  string           `json:"message"`
	Kind     client.ErrorKind `json:"kind"`
}

// IssueFor maps err into an Issue. It returns nil for a nil error.
func IssueFor(err error) *Issue {
	if err == nil {
		return nil
	}

	e := client.Normalize(err)
	if client.IsNetwork(e) {
		return networkIssue(e.Kind, networkReason(e))
	}
	return genericIssue(e.Kind, genericReason(e))
}

func networkIssue(kind client.ErrorKind, reason string) *Issue {
	return &Issue{
		Category: NetworkIssue,
		Title:    "Network Error",
		Message:  fmt.Sprintf("It looks like there's a network issue: %s Please check your internet connection and try again.", reason),
		Kind:     kind,
	}
}

func genericIssue(kind client.ErrorKind, reason string) *Issue {
	return &Issue{
		Category: GenericIssue,
		Title:    "Oops! Something went wrong",
		Message:  fmt.Sprintf("Something went wrong: %s Please try again later or contact support if the issue persists.", reason),
		Kind:     kind,
	}
}

func networkReason(e *client.Error) string {
	switch {
	case errors.Is(e, context.DeadlineExceeded):
		return "The request timed out."
	case e.Kind == client.KindTransport:
		return "You are not connected to the internet or the server is unreachable."
	case e.Class == client.ErrorClassServer:
		return fmt.Sprintf("Server error (status %d).", e.StatusCode)
	case e.Class == client.ErrorClassRateLimit:
		return "Too many requests, slow down."
	default:
		return fmt.Sprintf("The server rejected the request (status %d).", e.StatusCode)
	}
}

func genericReason(e *client.Error) string {
	switch e.Kind {
	case client.KindPersistenceRead:
		return "Local data is not available."
	case client.KindPersistenceWrite:
		return "Local data could not be saved."
	case client.KindFixtureNotFound, client.KindFixtureDecoding:
		return fmt.Sprintf("Failed to load data from bundle: %s.", e.Name)
	case client.KindDecoding:
		return "The server sent data in an unexpected format."
	case client.KindInvalidURL:
		return "The request could not be built."
	default:
		return "Failed to load data."
	}
}
