package main

import (
	"flag"
	"fmt"

	"github.com/grecko-app/grecko/core/gpa"
)

func (cli *commandLine) calcGPA(args []string) error {
	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}
	courses, err := parseGrades(args)
	if err != nil {
		return err
	}
	if err = cli.validate.Struct(gpa.CourseList{Courses: courses}); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, gpa.AverageGPA(courses))
	return nil
}

func (cli *commandLine) calcRequired(args []string) error {
	cmd := flag.NewFlagSet("calc required", flag.ContinueOnError)
	current := cmd.Float64("current", 0, "The current GPA")
	target := cmd.Float64("target", 0, "The target GPA")
	taken := cmd.Int("taken", 0, "The number of courses taken")
	remaining := cmd.Int("remaining", -1, "The number of courses remaining")
	total := cmd.Int("total", -1, "The total number of courses, used when -remaining is not set")
	if err := cmd.Parse(args); err != nil {
		return err
	}

	in := gpa.RequiredInput{
		CurrentGPA:   current,
		TargetGPA:    target,
		CoursesTaken: *taken,
	}
	if *remaining >= 0 {
		in.CoursesRemaining = remaining
	}
	if *total >= 0 {
		in.TotalCourses = total
	}
	if in.CoursesRemaining == nil && in.TotalCourses == nil {
		cmd.Usage()
		return errHelp
	}
	if err := cli.validate.Struct(in); err != nil {
		return err
	}

	res := in.Calculate()
	if res.Reachability == gpa.ReachabilityUndefined {
		fmt.Fprintf(cli.out, "%s (%d courses remaining)\n", res.RequiredGPA, res.CoursesRemaining)
		return nil
	}
	fmt.Fprintf(cli.out, "%s over %d courses: %s\n", res.RequiredGPA, res.CoursesRemaining, res.Reachability)
	return nil
}
