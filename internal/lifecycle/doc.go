// Package lifecycle holds the assignment state machine as pure functions.
//
// Every transition the service performs is decided here from the current
// status and the triggering event alone; persisting the result is the job of
// the store, which must re-check the starting status inside the same write.
//
//	IN_PROGRESS --submit--> COMPLETED --review--> APPROVED | REJECTED
//	IN_PROGRESS --sweep---> INCOMPLETE --submit--> LATESUBMIT --review--> APPROVED | REJECTED
//	REJECTED ---submit--> RESUBMITTED --review--> APPROVED | REJECTED
package lifecycle
