package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/1broseidon/zonetile/internal/config"
	"github.com/1broseidon/zonetile/internal/ipc"
	"github.com/1broseidon/zonetile/internal/layout"
	"github.com/1broseidon/zonetile/internal/spatial"
	"github.com/1broseidon/zonetile/internal/tui"
)

func printLayoutUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  zonetile layout list")
	fmt.Fprintln(w, "  zonetile layout show <layout>")
	fmt.Fprintln(w, "  zonetile layout apply [--space K] [--zone N] <layout>")
	fmt.Fprintln(w, "  zonetile layout create [--from-template ID]")
	fmt.Fprintln(w, "  zonetile layout cycle [--reverse] [--space K]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'zonetile layout <command> --help' for command-specific options.")
}

func runLayout(args []string) int {
	if len(args) == 0 {
		printLayoutUsage(os.Stderr)
		return 2
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printLayoutUsage(os.Stdout)
		return 0
	}

	switch args[0] {
	case "list":
		return runLayoutList(args[1:])
	case "show":
		return runLayoutShow(args[1:])
	case "apply":
		return runLayoutApply(args[1:])
	case "create":
		return runLayoutCreate(args[1:])
	case "cycle":
		return runCycle(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown layout command: %s\n\n", args[0])
		printLayoutUsage(os.Stderr)
		return 2
	}
}

func runLayoutList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: zonetile layout list")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List available layouts. Falls back to the local catalog when the daemon is not running.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "layout list takes no arguments")
		fs.Usage()
		return 2
	}

	layouts, lastSelected, err := fetchLayouts()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	for _, l := range layouts {
		marker := " "
		if l.ID == lastSelected {
			marker = "*"
		}
		kind := "builtin"
		if l.Editable {
			kind = "user"
		}
		fmt.Printf("%s %-16s %-20s %d zones (%s)\n", marker, l.ID, l.Name, len(l.Zones), kind)
	}
	return 0
}

func runLayoutShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: zonetile layout show [--width N] [--height N] <layout>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Render a layout's zones as ASCII art.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	width := fs.Int("width", 60, "Canvas width in characters")
	height := fs.Int("height", 18, "Canvas height in characters")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "layout show requires <layout>")
		fs.Usage()
		return 2
	}

	layouts, _, err := fetchLayouts()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	id := fs.Arg(0)
	for _, l := range layouts {
		if l.ID == id {
			for _, line := range tui.RenderPreview(l, *width, *height, -1) {
				fmt.Println(line)
			}
			for i, z := range l.Zones {
				fmt.Printf("%d: %s (%.2f,%.2f %.2fx%.2f)\n", i+1, z.Name, z.X, z.Y, z.W, z.H)
			}
			return 0
		}
	}
	fmt.Fprintf(os.Stderr, "layout not found: %s\n", id)
	return 1
}

func runLayoutApply(args []string) int {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: zonetile layout apply [--space K] [--zone N] <layout>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Assign a layout to a space (default: the active space).")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	space := fs.String("space", "", "Target space key (<connector>:<workspace>)")
	zone := fs.Int("zone", 0, "Initial zone index")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "layout apply requires <layout>")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	result, err := client.Trigger(ipc.TriggerActionPayload{
		Action:    ipc.ActionSetCurrent,
		Space:     *space,
		LayoutID:  fs.Arg(0),
		ZoneIndex: *zone,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("%s: %s zone %d\n", result.Space, result.LayoutID, result.ZoneIndex)
	return 0
}

func runLayoutCreate(args []string) int {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: zonetile layout create [--from-template ID]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Create a user layout interactively and save it to the config file.")
		fmt.Fprintln(os.Stderr, "Zones are entered one per line as: name x y w h (fractions of the work area).")
		fmt.Fprintln(os.Stderr, "With --from-template, copies a built-in template into an editable")
		fmt.Fprintln(os.Stderr, "user layout named template-<ID> instead of prompting.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	fromTemplate := fs.String("from-template", "", "Built-in template id to copy")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "layout create takes no arguments")
		fs.Usage()
		return 2
	}

	if *fromTemplate != "" {
		layouts, _, err := fetchLayouts()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		l, err := instantiateTemplate(*fromTemplate, layouts)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return saveUserLayout(l)
	}

	var id, name, zonesText string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Layout id").
				Description("Lowercase identifier, e.g. my-halves").
				Value(&id).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("id is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Display name").
				Value(&name),
			huh.NewText().
				Title("Zones").
				Description("One per line: name x y w h  (e.g. left 0 0 0.5 1)").
				Value(&zonesText).
				Validate(func(s string) error {
					_, err := parseZones(s)
					return err
				}),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	zones, err := parseZones(zonesText)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if name == "" {
		name = id
	}

	l := layout.Layout{ID: id, Name: name, Zones: zones, Editable: true}
	return saveUserLayout(l)
}

// instantiateTemplate copies the built-in template with the given id
// into an editable user layout.
func instantiateTemplate(id string, layouts []layout.Layout) (layout.Layout, error) {
	for _, l := range layouts {
		if l.ID != id {
			continue
		}
		if !l.IsTemplate {
			return layout.Layout{}, fmt.Errorf("%s is not a template", id)
		}
		return layout.FromTemplate(l), nil
	}
	return layout.Layout{}, fmt.Errorf("template not found: %s", id)
}

// saveUserLayout validates l, writes it to the config file and asks a
// running daemon to reload its catalog.
func saveUserLayout(l layout.Layout) int {
	if err := layout.Validate(l); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if cfg.Layouts == nil {
		cfg.Layouts = make(map[string]config.UserLayout)
	}
	cfg.Layouts[l.ID] = config.UserLayout{Name: l.Name, Zones: l.Zones}
	if err := cfg.Save(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("saved layout %q with %d zones\n", l.ID, len(l.Zones))

	// Pick up the new layout immediately when the daemon is running.
	client := ipc.NewClient()
	if err := client.Ping(); err == nil {
		if _, err := client.Trigger(ipc.TriggerActionPayload{Action: ipc.ActionReloadCatalog}); err != nil {
			fmt.Fprintf(os.Stderr, "warning: catalog reload failed: %v\n", err)
		}
	}
	return 0
}

// parseZones parses "name x y w h" lines into zones. Blank lines are
// skipped.
func parseZones(text string) ([]layout.Zone, error) {
	var zones []layout.Zone
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 5 {
			return nil, fmt.Errorf("line %d: want 'name x y w h', got %q", i+1, line)
		}

		vals := make([]float64, 4)
		for j, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad number %q", i+1, f)
			}
			vals[j] = v
		}

		zone := layout.Zone{Name: fields[0], X: vals[0], Y: vals[1], W: vals[2], H: vals[3]}
		if err := layout.ValidateZone(zone); err != nil {
			return nil, fmt.Errorf("line %d: %v", i+1, err)
		}
		zones = append(zones, zone)
	}
	if len(zones) == 0 {
		return nil, fmt.Errorf("at least one zone is required")
	}
	return zones, nil
}

// fetchLayouts returns the catalog from the daemon when it is running,
// otherwise the locally merged templates + config layouts.
func fetchLayouts() ([]layout.Layout, string, error) {
	client := ipc.NewClient()
	if state, err := client.GetState(); err == nil {
		return state.Layouts, state.LastSelected, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, "", err
	}
	catalog, _ := layout.Merge(layout.Templates(), cfg.UserLayouts())
	return catalog.All(), "", nil
}

func sortedSpaceKeys(state *ipc.StateData) []spatial.SpaceKey {
	keys := make([]spatial.SpaceKey, 0, len(state.Spaces))
	for k := range state.Spaces {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
