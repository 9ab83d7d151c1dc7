package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"classroom_fetcher/internal/service"
)

func printSessions(out io.Writer, s service.State) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "SUB ID\tCOURSE\tSESSION\tLECTURER\tPAGES\n")
	for _, sess := range s.Sessions {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", sess.SubID, sess.CourseName, sess.SubName, sess.LecturerName, sess.PageCount())
	}
	_ = tw.Flush()

	sum := s.Summary()
	fmt.Fprintf(out, "\n%s: %d sessions, %d selected, %d pages\n", s.Window.String(), sum.Sessions, sum.SelectedSubs, sum.SelectedPages)
}
