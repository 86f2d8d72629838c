// Package task runs external test commands as subprocesses.
//
// A Task is created from a Spec, started, and waited on exactly once:
//
//	t, err := task.New(task.Spec{Name: "api unit tests", Command: "go test ./...", WorkDir: "apps/api"})
//	if err != nil {
//	    return err
//	}
//	if err := t.Start(ctx); err != nil {
//	    return err // could not launch
//	}
//	res, err := t.Wait() // *SubprocessError on non-zero exit
//
// Command lines are split with shell quoting rules but are not run through a
// shell. Output is captured and optionally mirrored to a live writer.
package task
