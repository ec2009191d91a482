// Package errors provides the classified error type used across texbuilder.
//
// Every failure that reaches a command or an HTTP handler carries a category.
// The CLI adapter turns the category into an exit code, the HTTP adapter into
// a status code, and retry.Do uses the retry strategy to decide whether to
// try again.
//
//	err := errors.InputError("document record is missing a title").
//		ForDocument(doc.ID).
//		Field("title").
//		Build()
package errors
