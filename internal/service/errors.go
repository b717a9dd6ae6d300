package service

import "errors"

// Domain errors surfaced to the transport layer. Handlers map these to
// stable error codes; everything else is treated as a storage failure.
var (
	// ErrExamNotFound means the referenced exam definition does not exist.
	ErrExamNotFound = errors.New("exam not found")
	// ErrSessionNotFound means no session matches, or the caller does not
	// own the one that does.
	ErrSessionNotFound = errors.New("session not found")
	// ErrQuestionNotFound means the question id does not belong to the
	// session's exam definition.
	ErrQuestionNotFound = errors.New("question not found in exam")

	// ErrAlreadySubmitted rejects starting an exam whose session has been
	// finished. Attempts are one-shot.
	ErrAlreadySubmitted = errors.New("exam already submitted")
	// ErrExpired rejects starting an exam whose session ran out of time.
	// Elapsed wall-clock consumes the attempt; there is no restart.
	ErrExpired = errors.New("exam time has expired")
	// ErrAlreadyTaken rejects starting an exam whose session exists but is
	// neither resumable nor cleanly finished.
	ErrAlreadyTaken = errors.New("exam already taken")
	// ErrExamNotAvailable rejects starting outside the availability window.
	ErrExamNotAvailable = errors.New("exam is not open")

	// ErrNoActiveSession is the usability guard failure: the session is
	// inactive, finished, or past its deadline.
	ErrNoActiveSession = errors.New("no active exam session")

	// ErrInvalidSelection means the answer payload shape does not match
	// the question type.
	ErrInvalidSelection = errors.New("selection does not match question type")
)
