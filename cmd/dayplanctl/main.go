// Command dayplanctl works a local planner cache and syncs it against
// a dayplan server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"dayplan/internal/client"
	"dayplan/internal/config"
	"dayplan/internal/localstore"
	"dayplan/internal/planner"
	"dayplan/internal/syncgate"
	"dayplan/internal/timeutil"
)

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, _ := config.LoadClient()
	store, err := localstore.Open(cfg.LocalDB)
	if err != nil {
		log.Fatalf("open local store: %v", err)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "login":
		cmdLogin(ctx, cfg, store, os.Args[2:])
	case "add":
		cmdAdd(store, os.Args[2:])
	case "done":
		cmdDone(store, os.Args[2:])
	case "today":
		cmdToday(store)
	case "use":
		cmdUse(store, os.Args[2:])
	case "sync":
		cmdSync(ctx, cfg, store)
	case "load":
		cmdLoad(ctx, cfg, store)
	case "stats":
		cmdStats(store, os.Args[2:])
	case "logout":
		cmdLogout(store, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: dayplanctl <command> [flags]

commands:
  login   -email -password     sign in and save the session
  add     -time -task [-date]  add a task to a time slot
  done    -time -task [-date]  mark a task completed
  today                        show today's slots in order
  use     -from [-date]        import a previous day's plan
  sync                         push local days to the server
  load                         pull the server document into the cache
  stats   [-week YYYY-MM-DD]   weekly completion report
  logout  [-purge]             drop the saved session`)
}

func mustUser(store *localstore.Store) planner.User {
	u := store.CurrentUser()
	if u == nil {
		log.Fatal("not signed in, run: dayplanctl login")
	}
	return *u
}

func gate(cfg config.ClientConfig, store *localstore.Store, api *client.Client) *syncgate.Gate {
	return &syncgate.Gate{
		Store:     store,
		Remote:    api,
		SyncEvery: cfg.SyncInterval,
		LoadEvery: cfg.LoadInterval,
	}
}

func cmdLogin(ctx context.Context, cfg config.ClientConfig, store *localstore.Store, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)
	if *email == "" || *password == "" {
		log.Fatal("login requires -email and -password")
	}

	api := client.New(cfg.ServerURL, "")
	userID, err := api.Login(ctx, *email, *password)
	if err != nil {
		log.Fatalf("login: %v", err)
	}

	store.SetCurrentUser(planner.User{ID: userID, Email: *email})
	store.SetToken(api.Token)
	log.Printf("signed in as %s", *email)
}

func cmdAdd(store *localstore.Store, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	slot := fs.String("time", "", "time slot, e.g. 6:00 AM or 14:30")
	task := fs.String("task", "", "task text")
	date := fs.String("date", time.Now().Format(planner.DateKey), "date (YYYY-MM-DD)")
	_ = fs.Parse(args)
	if *slot == "" || *task == "" {
		log.Fatal("add requires -time and -task")
	}

	user := mustUser(store)
	label := timeutil.To12Hour(*slot)
	now := timeutil.FormatClock(time.Now())

	rec := store.PlannerData(user.ID, *date)
	ts := rec.Tasks[label]
	for _, st := range ts.Subtasks {
		if st.Text == *task {
			log.Printf("%q already in %s", *task, label)
			return
		}
	}
	ts.Subtasks = append(ts.Subtasks, planner.Subtask{Text: *task})
	ts.UpdatedAt = now
	rec.Tasks[label] = ts
	rec.LastUpdated = now
	store.SavePlannerData(user.ID, *date, rec)

	log.Printf("added %q at %s on %s", *task, label, *date)
}

func cmdDone(store *localstore.Store, args []string) {
	fs := flag.NewFlagSet("done", flag.ExitOnError)
	slot := fs.String("time", "", "time slot")
	task := fs.String("task", "", "task text")
	date := fs.String("date", time.Now().Format(planner.DateKey), "date (YYYY-MM-DD)")
	_ = fs.Parse(args)
	if *slot == "" || *task == "" {
		log.Fatal("done requires -time and -task")
	}

	user := mustUser(store)
	label := timeutil.To12Hour(*slot)

	rec := store.PlannerData(user.ID, *date)
	ts, ok := rec.Tasks[label]
	if !ok {
		log.Fatalf("no slot %s on %s", label, *date)
	}
	for i := range ts.Subtasks {
		if ts.Subtasks[i].Text == *task {
			ts.Subtasks[i].Done = true
			ts.UpdatedAt = timeutil.FormatClock(time.Now())
			rec.Tasks[label] = ts
			rec.LastUpdated = ts.UpdatedAt
			store.SavePlannerData(user.ID, *date, rec)
			log.Printf("done: %q", *task)
			return
		}
	}
	log.Fatalf("no task %q at %s", *task, label)
}

func cmdUse(store *localstore.Store, args []string) {
	fs := flag.NewFlagSet("use", flag.ExitOnError)
	from := fs.String("from", "", "date to copy the plan from (YYYY-MM-DD)")
	date := fs.String("date", time.Now().Format(planner.DateKey), "date to merge into (YYYY-MM-DD)")
	_ = fs.Parse(args)
	if *from == "" {
		log.Fatal("use requires -from")
	}
	if _, err := time.Parse(planner.DateKey, *from); err != nil {
		log.Fatalf("bad -from: %v", err)
	}

	user := mustUser(store)
	merged, ok := store.ImportDay(user.ID, *from, *date)
	if !ok {
		log.Fatalf("nothing planned on %s", *from)
	}
	log.Printf("imported %s into %s (%d slot(s))", *from, *date, len(merged.Tasks))
}

func cmdLogout(store *localstore.Store, args []string) {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	purge := fs.Bool("purge", false, "also wipe the user's cached planner data")
	_ = fs.Parse(args)

	if *purge {
		if u := store.CurrentUser(); u != nil {
			store.ClearUser(u.ID)
			log.Println("signed out, local data wiped")
			return
		}
	}
	store.ClearCurrentUser()
	log.Println("signed out")
}

func cmdToday(store *localstore.Store) {
	user := mustUser(store)
	now := time.Now()
	rec := store.PlannerData(user.ID, now.Format(planner.DateKey))

	labels := make([]string, 0, len(rec.Tasks))
	for label := range rec.Tasks {
		labels = append(labels, label)
	}
	sort.SliceStable(labels, func(i, j int) bool {
		return timeutil.SortMinutes(labels[i]) < timeutil.SortMinutes(labels[j])
	})

	if len(labels) == 0 {
		log.Println("nothing planned today")
		return
	}
	for _, label := range labels {
		marker := " "
		if timeutil.InRange(label, now) {
			marker = ">"
		}
		fmt.Printf("%s %s\n", marker, label)
		for _, st := range rec.Tasks[label].Subtasks {
			box := "[ ]"
			if st.Done {
				box = "[x]"
			}
			fmt.Printf("   %s %s\n", box, st.Text)
		}
	}
}

func cmdSync(ctx context.Context, cfg config.ClientConfig, store *localstore.Store) {
	user := mustUser(store)
	api := client.New(cfg.ServerURL, store.Token())

	if err := api.Health(ctx); err != nil {
		log.Fatalf("server unreachable: %v", err)
	}

	g := gate(cfg, store, api)
	if err := g.Push(ctx, user); err != nil {
		var cd *planner.CooldownError
		if errors.As(err, &cd) {
			log.Fatalf("sync on cooldown, retry in %s", cd.Remaining.Round(time.Minute))
		}
		log.Fatalf("sync: %v", err)
	}
	log.Println("synced")
}

func cmdLoad(ctx context.Context, cfg config.ClientConfig, store *localstore.Store) {
	user := mustUser(store)
	api := client.New(cfg.ServerURL, store.Token())

	g := gate(cfg, store, api)
	err := g.Pull(ctx, user.ID)
	switch {
	case err == nil:
		log.Println("loaded")
	case errors.Is(err, planner.ErrNotFound):
		log.Println("nothing on the server yet")
	default:
		var cd *planner.CooldownError
		if errors.As(err, &cd) {
			log.Fatalf("load on cooldown, retry in %s", cd.Remaining.Round(time.Minute))
		}
		log.Fatalf("load: %v", err)
	}
}

func cmdStats(store *localstore.Store, args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	week := fs.String("week", "", "week start date (YYYY-MM-DD), defaults to last Monday")
	_ = fs.Parse(args)

	user := mustUser(store)

	start := time.Now()
	if *week != "" {
		t, err := time.Parse(planner.DateKey, *week)
		if err != nil {
			log.Fatalf("bad -week: %v", err)
		}
		start = t
	} else {
		for start.Weekday() != time.Monday {
			start = start.AddDate(0, 0, -1)
		}
	}

	doc := store.CollectDocument(user.ID)
	report := planner.WeekStats(doc, start)

	fmt.Printf("week of %s\n", start.Format(planner.DateKey))
	fmt.Printf("  tasks:      %d (%d done, %d%%)\n", report.TotalTasks, report.CompletedTasks, report.CompletionRate)
	fmt.Printf("  per day:    %d\n", report.AveragePerDay)
	fmt.Printf("  best day:   %s\n", report.MostProductiveDay)
	fmt.Printf("  streak:     %d day(s)\n", report.BestStreak)
	if goal := store.CachedGoal(user.ID); goal != "" {
		fmt.Printf("  weekly goal: %s\n", goal)
	}
}
