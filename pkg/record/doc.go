// Package record captures touch gestures as replayable traces.
//
// A Recorder collects the raw samples of one gesture together with the
// thresholds that judged it and the recognizer's verdict. Traces are stored
// as YAML so they can be read, edited, and replayed against new thresholds:
//
//	tr, _ := record.ReadFile("testdata/near-miss.yaml")
//	res := record.Replay(tr, gesture.Config{MinSwipeDistance: 40})
//	fmt.Println(res.Direction, res.Reason)
//
// Sinks persist finished traces. DirSink writes to a directory, S3Sink to a
// bucket, and AsyncSink moves either off the caller's goroutine.
package record
