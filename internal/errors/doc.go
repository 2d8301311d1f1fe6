// Package errors provides coded, actionable errors for the gestured command.
//
// Every failure a user can fix themselves (a bad config file, an unreadable
// trace, a missing bucket) has a code in the registry with a short message,
// a longer explanation, and usually a hint:
//
//	err := errors.New("G102").
//	    WithFile("gestured.json").
//	    WithDetail("gesture.minSwipeSpeed is -0.5").
//	    Wrap(cause)
//
//	errors.Print(os.Stderr, err)
//	// ERROR G102: Invalid gesture threshold
//	//
//	//   gestured.json
//	//
//	//   gesture.minSwipeSpeed is -0.5
//	//
//	//   Hint: Thresholds must be zero (use the default) or positive.
//
// # Error Categories
//
//   - config: gestured.json and environment overrides
//   - record: trace files and trace sinks
//   - server: listener and session startup
//   - cli: command-line usage
package errors
