package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/neexbeast/travel-vibes/internal/backend"
	"github.com/neexbeast/travel-vibes/internal/cache"
	"github.com/neexbeast/travel-vibes/internal/config"
	"github.com/neexbeast/travel-vibes/internal/itinerary"
	"github.com/neexbeast/travel-vibes/internal/planner"
	"github.com/neexbeast/travel-vibes/internal/request"
	"github.com/neexbeast/travel-vibes/internal/store"
)

const usage = `usage: vibes <command> [flags]

commands:
  register <name> <email> <password>
  login <email> <password>
  logout
  whoami
  trips                         list your trips
  new -name N [-dest D -start YYYY-MM-DD -end YYYY-MM-DD -vibe V -travelers N]
  edit -trip ID [same flags as new]
  delete <tripID>
  plan <tripID> [-json]         show the day-by-day itinerary
  add [-trip ID] -id ID -name N [-city C -country C -category C -vibe V]
  assign -trip ID -place ID [-day N | -unassign] [-time HH:MM | -clear-time]
  rm -trip ID -place ID
  search <text> [-limit N]      find destinations
  fav [-id ID -name N -city C -country C]   toggle or list offline favorites`

// usageError is reported to the user verbatim.
type usageError string

func (e usageError) Error() string { return string(e) }

// describe turns err into the line printed for the user.
func describe(err error) string {
	var ue usageError
	switch {
	case errors.As(err, &ue):
		return ue.Error()
	case errors.Is(err, planner.ErrNoCurrentTrip):
		return "No trip selected. Pass -trip with one of your trip IDs."
	default:
		return backend.UserMessage(err)
	}
}

type app struct {
	out       io.Writer
	log       *slog.Logger
	session   *cache.Session
	favorites *cache.LocalFavorites
	client    *backend.Client
	store     *store.Store
	planner   *planner.Planner
}

func newApp(cfg config.ClientConfig, st *cache.Storage, out io.Writer, log *slog.Logger) *app {
	session := cache.NewSession(st)
	client := backend.New(cfg.APIBaseURL, session,
		backend.WithTimeout(cfg.HTTPTimeout),
		backend.WithImageTimeout(cfg.ImageTimeout),
		backend.WithLogger(log),
	)
	trips := store.New(store.WithLogger(log))
	return &app{
		out:       out,
		log:       log,
		session:   session,
		favorites: cache.NewLocalFavorites(st),
		client:    client,
		store:     trips,
		planner:   planner.New(client, trips, planner.WithLogger(log)),
	}
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError(usage)
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register":
		return a.register(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "logout":
		if err := a.session.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Logged out.")
		return nil
	case "whoami":
		return a.whoami(ctx)
	case "trips":
		return a.trips(ctx)
	case "new":
		return a.newTrip(ctx, rest)
	case "edit":
		return a.editTrip(ctx, rest)
	case "delete":
		return a.deleteTrip(ctx, rest)
	case "plan":
		return a.plan(ctx, rest)
	case "add":
		return a.add(ctx, rest)
	case "assign":
		return a.assign(ctx, rest)
	case "rm":
		return a.remove(ctx, rest)
	case "search":
		return a.search(ctx, rest)
	case "fav":
		return a.fav(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprintln(a.out, usage)
		return nil
	}
	return usageError(fmt.Sprintf("unknown command %q\n\n%s", cmd, usage))
}

// flagSet returns a FlagSet whose parse errors come back as usage errors.
func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return usageError(fmt.Sprintf("%s: %v", fs.Name(), err))
	}
	return nil
}

// parseMixed parses flags that may follow leading positional arguments, so both
// "plan ID -json" and "plan -json ID" work.
func parseMixed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		positional = append(positional, args[0])
		args = args[1:]
	}
	if err := parse(fs, args); err != nil {
		return nil, err
	}
	return append(positional, fs.Args()...), nil
}

// ---- account ----

func (a *app) register(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return usageError("usage: vibes register <name> <email> <password>")
	}
	sess, err := a.client.Register(ctx, args[0], args[1], args[2])
	if err != nil {
		return err
	}
	return a.saveSession(ctx, sess, "Welcome")
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError("usage: vibes login <email> <password>")
	}
	sess, err := a.client.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	return a.saveSession(ctx, sess, "Logged in as")
}

func (a *app) saveSession(ctx context.Context, sess backend.Session, greeting string) error {
	if err := a.session.Save(ctx, sess); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s <%s>\n", greeting, sess.User.Name, sess.User.Email)
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	u, err := a.session.User(ctx)
	if err != nil {
		return err
	}
	if u == nil {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	fmt.Fprintf(a.out, "%s <%s>\n", u.Name, u.Email)
	return nil
}

// ---- trips ----

func (a *app) trips(ctx context.Context) error {
	tr := request.New("/trips", backend.TripsFetcher(a.client), request.WithContext[[]itinerary.Trip](ctx))
	select {
	case <-tr.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}
	state := tr.State()
	if state.Err != nil {
		return state.Err
	}

	trips := *state.Data
	if len(trips) == 0 {
		fmt.Fprintln(a.out, "No trips yet. Create one with: vibes new -name \"Lisbon\"")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDESTINATION\tDATES\tDAYS\tPLACES")
	for _, t := range trips {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			t.ID, t.Name, t.Destination, dateRange(t), itinerary.DayCount(t), len(t.Favorites))
	}
	return tw.Flush()
}

func dateRange(t itinerary.Trip) string {
	switch {
	case t.StartDate == "" && t.EndDate == "":
		return "-"
	case t.EndDate == "" || t.EndDate == t.StartDate:
		return t.StartDate
	}
	return t.StartDate + " to " + t.EndDate
}

func detailFlags(fs *flag.FlagSet, d *itinerary.TripDetails) {
	fs.StringVar(&d.Name, "name", d.Name, "trip name")
	fs.StringVar(&d.Destination, "dest", d.Destination, "destination")
	fs.StringVar(&d.StartDate, "start", d.StartDate, "start date")
	fs.StringVar(&d.EndDate, "end", d.EndDate, "end date")
	fs.StringVar(&d.Vibe, "vibe", d.Vibe, "vibe")
	fs.IntVar(&d.Travelers, "travelers", d.Travelers, "travelers")
}

func (a *app) newTrip(ctx context.Context, args []string) error {
	d := itinerary.TripDetails{Travelers: 1}
	fs := a.flagSet("new")
	detailFlags(fs, &d)
	if err := parse(fs, args); err != nil {
		return err
	}
	res := a.planner.CreateTrip(ctx, d)
	if !res.OK() {
		return res.Err
	}
	fmt.Fprintf(a.out, "Created trip %s (%s)\n", res.Value.Name, res.Value.ID)
	return nil
}

func (a *app) editTrip(ctx context.Context, args []string) error {
	pre := a.flagSet("edit")
	tripID := pre.String("trip", "", "trip ID")
	var scratch itinerary.TripDetails
	detailFlags(pre, &scratch)
	if err := parse(pre, args); err != nil {
		return err
	}
	trip, err := a.selectTrip(ctx, *tripID)
	if err != nil {
		return err
	}

	// Re-parse over the current details so unset flags keep their values.
	d := trip.Details()
	fs := a.flagSet("edit")
	fs.String("trip", "", "trip ID")
	detailFlags(fs, &d)
	if err := parse(fs, args); err != nil {
		return err
	}
	res := a.planner.UpdateTrip(ctx, trip.ID, d)
	if !res.OK() {
		return res.Err
	}
	fmt.Fprintf(a.out, "Updated trip %s\n", res.Value.Name)
	return nil
}

func (a *app) deleteTrip(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("usage: vibes delete <tripID>")
	}
	res := a.planner.DeleteTrip(ctx, args[0])
	if !res.OK() {
		return res.Err
	}
	fmt.Fprintln(a.out, "Deleted trip", res.Value)
	return nil
}

// selectTrip loads the user's trips into the store and makes id current.
// An empty id leaves no trip selected.
func (a *app) selectTrip(ctx context.Context, id string) (itinerary.Trip, error) {
	if res := a.planner.LoadTrips(ctx); !res.OK() {
		return itinerary.Trip{}, res.Err
	}
	if id == "" {
		return itinerary.Trip{}, nil
	}
	trip, ok := a.store.Trip(id)
	if !ok {
		return itinerary.Trip{}, usageError(fmt.Sprintf("no trip with ID %s; run vibes trips to list them", id))
	}
	a.store.SelectTrip(id)
	return trip, nil
}

func (a *app) plan(ctx context.Context, args []string) error {
	fs := a.flagSet("plan")
	asJSON := fs.Bool("json", false, "print JSON")
	positional, err := parseMixed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return usageError("usage: vibes plan <tripID> [-json]")
	}
	trip, err := a.selectTrip(ctx, positional[0])
	if err != nil {
		return err
	}

	it := itinerary.Build(trip)
	if *asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(it)
	}

	fmt.Fprintf(a.out, "%s  %s  %d traveler(s)\n", trip.Name, dateRange(trip), max(trip.Travelers, 1))
	if len(it.Locations) > 0 {
		fmt.Fprintf(a.out, "Locations: %s\n", strings.Join(it.Locations, "; "))
	}
	for _, day := range it.Days {
		fmt.Fprintf(a.out, "\n%s\n", day.Label)
		if len(day.Places) == 0 {
			fmt.Fprintln(a.out, "  (nothing planned)")
		}
		for _, p := range day.Places {
			at := "--:--"
			if p.AssignedTime != nil {
				at = *p.AssignedTime
			}
			fmt.Fprintf(a.out, "  %s  %s [%s]\n", at, p.Name, p.ID)
		}
	}
	if len(it.Unscheduled) > 0 {
		fmt.Fprintln(a.out, "\nUnscheduled")
		for _, p := range it.Unscheduled {
			fmt.Fprintf(a.out, "  - %s [%s]\n", p.Name, p.ID)
		}
	}
	return nil
}

// ---- favorites in a trip ----

func placeFlags(fs *flag.FlagSet, p *itinerary.Place) {
	fs.StringVar(&p.ID, "id", "", "place ID")
	fs.StringVar(&p.Name, "name", "", "place name")
	fs.StringVar(&p.City, "city", "", "city")
	fs.StringVar(&p.Country, "country", "", "country")
	fs.StringVar(&p.Category, "category", "", "category")
	fs.StringVar(&p.Vibe, "vibe", "", "vibe")
}

func (a *app) add(ctx context.Context, args []string) error {
	var place itinerary.Place
	fs := a.flagSet("add")
	tripID := fs.String("trip", "", "trip ID; a new trip is created when empty")
	placeFlags(fs, &place)
	if err := parse(fs, args); err != nil {
		return err
	}
	if _, err := a.selectTrip(ctx, *tripID); err != nil {
		return err
	}

	res := a.planner.AddFavorite(ctx, place)
	if !res.OK() {
		return res.Err
	}
	fmt.Fprintf(a.out, "Added %s to %s (%s)\n", place.Name, res.Value.Name, res.Value.ID)
	return nil
}

func (a *app) assign(ctx context.Context, args []string) error {
	fs := a.flagSet("assign")
	tripID := fs.String("trip", "", "trip ID")
	placeID := fs.String("place", "", "place ID")
	day := fs.Int("day", 0, "day number, starting at 1")
	unassign := fs.Bool("unassign", false, "move the place back to the unscheduled pool")
	hhmm := fs.String("time", "", "time slot HH:MM")
	clearTime := fs.Bool("clear-time", false, "remove the time slot")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *tripID == "" || *placeID == "" {
		return usageError("usage: vibes assign -trip ID -place ID [-day N | -unassign] [-time HH:MM | -clear-time]")
	}
	if _, err := a.selectTrip(ctx, *tripID); err != nil {
		return err
	}

	switch {
	case *unassign:
		if res := a.planner.AssignPlaceToDay(ctx, *placeID, nil); !res.OK() {
			return res.Err
		}
	case *day != 0:
		if res := a.planner.AssignPlaceToDay(ctx, *placeID, day); !res.OK() {
			return res.Err
		}
	}
	switch {
	case *clearTime:
		if res := a.planner.UpdatePlaceTime(ctx, *placeID, nil); !res.OK() {
			return res.Err
		}
	case *hhmm != "":
		if res := a.planner.UpdatePlaceTime(ctx, *placeID, hhmm); !res.OK() {
			return res.Err
		}
	}

	trip, _ := a.store.CurrentTrip()
	i := itinerary.IndexOf(trip.Favorites, *placeID)
	if i < 0 {
		return usageError(fmt.Sprintf("place %s is not in trip %s", *placeID, *tripID))
	}
	fmt.Fprintln(a.out, describeSlot(trip.Favorites[i]))
	return nil
}

func describeSlot(p itinerary.Place) string {
	if p.AssignedDay == nil {
		return p.Name + ": unscheduled"
	}
	s := fmt.Sprintf("%s: day %d", p.Name, *p.AssignedDay)
	if p.AssignedTime != nil {
		s += " at " + *p.AssignedTime
	}
	return s
}

func (a *app) remove(ctx context.Context, args []string) error {
	fs := a.flagSet("rm")
	tripID := fs.String("trip", "", "trip ID")
	placeID := fs.String("place", "", "place ID")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *tripID == "" || *placeID == "" {
		return usageError("usage: vibes rm -trip ID -place ID")
	}
	if _, err := a.selectTrip(ctx, *tripID); err != nil {
		return err
	}
	res := a.planner.RemoveFavorite(ctx, *placeID)
	if !res.OK() {
		return res.Err
	}
	fmt.Fprintf(a.out, "%s now has %d place(s)\n", res.Value.Name, len(res.Value.Favorites))
	return nil
}

// ---- search and offline favorites ----

func (a *app) search(ctx context.Context, args []string) error {
	fs := a.flagSet("search")
	limit := fs.Int("limit", 5, "maximum results")
	positional, err := parseMixed(fs, args)
	if err != nil {
		return err
	}
	text := strings.TrimSpace(strings.Join(positional, " "))
	if text == "" {
		return usageError("usage: vibes search <text> [-limit N]")
	}

	results, err := a.client.SearchDestinations(ctx, text, *limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(a.out, "No destinations found.")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tNAME\tCOUNTRY\tIMAGE")
	for _, d := range results {
		mark := ""
		if saved, err := a.favorites.IsFavorite(ctx, d.ID); err != nil {
			a.log.Warn("checking offline favorite failed", "id", d.ID, "err", err)
		} else if saved {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark, d.ID, d.Name, d.Country, d.ImageURL)
	}
	return tw.Flush()
}

func (a *app) fav(ctx context.Context, args []string) error {
	var place itinerary.Place
	fs := a.flagSet("fav")
	placeFlags(fs, &place)
	if err := parse(fs, args); err != nil {
		return err
	}

	if place.ID == "" {
		list, err := a.favorites.List(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(a.out, "No offline favorites.")
			return nil
		}
		for _, p := range list {
			fmt.Fprintf(a.out, "%s\t%s\n", p.ID, p.Name)
		}
		return nil
	}

	if err := itinerary.ValidatePlace(place); err != nil {
		return err
	}
	added, err := a.favorites.Toggle(ctx, place)
	if err != nil {
		return err
	}
	if added {
		fmt.Fprintf(a.out, "Saved %s\n", place.Name)
	} else {
		fmt.Fprintf(a.out, "Removed %s\n", place.Name)
	}
	return nil
}
