package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/JackyZzZz/Jacky-PeterPortal/pkg/calendar"
	"github.com/JackyZzZz/Jacky-PeterPortal/pkg/whttp"
)

func main() {
	// Usage: go run *.go -date 2023-10-02

	dateFlag := flag.String("date", "", "Date to resolve (YYYY-MM-DD), defaults to today")
	flag.Parse()

	now := time.Now()
	if *dateFlag != "" {
		d, err := time.ParseInLocation("2006-01-02", *dateFlag, calendar.Pacific())
		if err != nil {
			fmt.Println("Invalid date:", err)
			return
		}
		now = d.Add(12 * time.Hour)
	}

	client, err := whttp.NewClient(whttp.Options{})
	if err != nil {
		fmt.Println(err)
		return
	}

	// No store: every call scrapes the registrar's page.
	cache := calendar.NewCache(nil, calendar.NewBuilder(client, calendar.DefaultBaseURL, nil), nil)
	week, err := calendar.NewResolver(cache, nil).Resolve(context.Background(), now)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(week.Display)
}
