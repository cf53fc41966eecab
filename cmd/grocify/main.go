package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"grocify/internal/catalog"
	"grocify/internal/clipper"
	"grocify/internal/config"
	"grocify/internal/database"
	"grocify/internal/docstore"
	"grocify/internal/export"
	"grocify/internal/list"
	"grocify/internal/prefs"
	"grocify/internal/recipes"
	"grocify/internal/stores"
)

func main() {
	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	store := docstore.NewSQLiteStore(db.SQL)

	storeSvc := stores.NewService(store)
	if err := storeSvc.Refresh(ctx); err != nil {
		log.Fatalf("Failed to load stores: %v", err)
	}

	proj := list.NewProjector(store, list.WithSectionOrder(storeSvc.CurrentSectionOrder))
	if err := proj.Refresh(ctx); err != nil {
		log.Fatalf("Failed to load shopping list: %v", err)
	}

	recipeSvc := recipes.NewService(store)

	prefStore, err := prefs.NewStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to initialize preferences: %v", err)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "list":
		printView(proj.View())
	case "add":
		runAdd(ctx, proj, prefStore, strings.Join(os.Args[2:], " "))
	case "check":
		runCheck(ctx, proj, strings.Join(os.Args[2:], " "), true)
	case "uncheck":
		runCheck(ctx, proj, strings.Join(os.Args[2:], " "), false)
	case "remove":
		runRemove(ctx, proj, strings.Join(os.Args[2:], " "))
	case "qty":
		runQty(ctx, proj, os.Args[2:])
	case "meal":
		runMeal(ctx, proj, os.Args[2:])
	case "meals":
		printMeals(proj.View())
	case "suggest":
		runSuggest(proj, prefStore, strings.Join(os.Args[2:], " "))
	case "fav":
		runFav(prefStore, strings.Join(os.Args[2:], " "))
	case "recipes":
		runRecipes(ctx, recipeSvc, os.Args[2:])
	case "stores":
		runStores(ctx, storeSvc, os.Args[2:])
	case "clip":
		runClip(ctx, recipeSvc, os.Args[2:])
	case "export":
		runExport(proj.View(), os.Args[2:])
	case "clear":
		runClear(ctx, proj)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: grocify <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  list               Print the shopping list grouped by section")
	fmt.Println("  add <line>         Add an item, e.g. \"2x melk\" or \"500g rijst\"")
	fmt.Println("  check <name>       Mark an item as picked up")
	fmt.Println("  uncheck <name>     Unmark an item")
	fmt.Println("  remove <name>      Remove an item entirely")
	fmt.Println("  qty <name> <delta> Adjust an item's quantity")
	fmt.Println("  meal <name> [-off] Activate (or deactivate) a meal")
	fmt.Println("  meals              List known meals and their status")
	fmt.Println("  suggest [query]    Show autocomplete suggestions")
	fmt.Println("  fav [name]         Star or unstar an item; no name lists favorites")
	fmt.Println("  recipes [save|delete] Manage custom recipes")
	fmt.Println("  stores [create|use|delete] Manage stores and the active one")
	fmt.Println("  clip -url <url>    Clip a recipe web page into a custom recipe")
	fmt.Println("  export -out <path> Write the list to an .xlsx workbook")
	fmt.Println("  clear              Empty the whole list")
}

func printView(view list.View) {
	if len(view.Sections) == 0 {
		fmt.Println("The list is empty.")
		return
	}
	for _, sec := range view.Sections {
		fmt.Printf("%s (%d/%d)\n", sec.Section, sec.Total-sec.Unchecked, sec.Total)
		for _, item := range sec.Items {
			mark := "[ ]"
			if item.Checked {
				mark = "[x]"
			}
			label := item.Name
			if item.Unit != "" {
				label = fmt.Sprintf("%s (%g %s)", item.Name, item.Quantity, item.Unit)
			} else if item.Quantity != 1 {
				label = fmt.Sprintf("%s (%gx)", item.Name, item.Quantity)
			}
			fmt.Printf("  %s %s\n", mark, label)
		}
	}
	if len(view.ActiveMeals) > 0 {
		fmt.Printf("Active meals: %s\n", strings.Join(view.ActiveMeals, ", "))
	}
	if len(view.ReadyMeals) > 0 {
		fmt.Printf("Ready to cook: %s\n", strings.Join(view.ReadyMeals, ", "))
	}
}

func printMeals(view list.View) {
	active := make(map[string]bool, len(view.ActiveMeals))
	for _, name := range view.ActiveMeals {
		active[name] = true
	}
	names := make([]string, 0, len(view.Meals))
	for name := range view.Meals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		mark := " "
		if active[name] {
			mark = "*"
		}
		fmt.Printf("%s %s\n", mark, name)
	}
}

func runAdd(ctx context.Context, proj *list.Projector, prefStore *prefs.Store, raw string) {
	draft := list.ParseDraft(raw)
	if draft == nil {
		log.Fatal("Nothing to add")
	}
	qty, err := proj.AddDraft(ctx, draft)
	if err != nil {
		log.Fatalf("Failed to add item: %v", err)
	}
	if err := prefStore.PushRecent(draft.Name); err != nil {
		log.Printf("Warning: failed to record recent item: %v", err)
	}
	if draft.Unit != "" {
		fmt.Printf("Added %g %s %s (%s)\n", qty, draft.Unit, draft.Name, draft.Section)
	} else {
		fmt.Printf("Added %gx %s (%s)\n", qty, draft.Name, draft.Section)
	}
}

func runCheck(ctx context.Context, proj *list.Projector, name string, checked bool) {
	if name == "" {
		log.Fatal("Item name required")
	}
	if err := proj.ToggleChecked(ctx, name, checked); err != nil {
		log.Fatalf("Failed to toggle item: %v", err)
	}
}

func runRemove(ctx context.Context, proj *list.Projector, name string) {
	if name == "" {
		log.Fatal("Item name required")
	}
	removed, err := proj.DeleteItem(ctx, name)
	if err != nil {
		log.Fatalf("Failed to remove item: %v", err)
	}
	if removed == nil {
		fmt.Printf("No item named %q\n", name)
		return
	}
	fmt.Printf("Removed %s\n", removed.Name)
}

func runQty(ctx context.Context, proj *list.Projector, args []string) {
	if len(args) < 2 {
		log.Fatal("Usage: grocify qty <name> <delta>")
	}
	name := strings.Join(args[:len(args)-1], " ")
	var delta float64
	if _, err := fmt.Sscanf(args[len(args)-1], "%g", &delta); err != nil {
		log.Fatalf("Invalid delta %q", args[len(args)-1])
	}
	removed, err := proj.AdjustQuantity(ctx, name, delta)
	if err != nil {
		log.Fatalf("Failed to adjust quantity: %v", err)
	}
	if removed != nil {
		fmt.Printf("Removed %s (quantity reached zero)\n", removed.Name)
	}
}

func runMeal(ctx context.Context, proj *list.Projector, args []string) {
	mealCmd := flag.NewFlagSet("meal", flag.ExitOnError)
	off := mealCmd.Bool("off", false, "Deactivate instead of activate")
	mealCmd.Parse(args)
	name := strings.Join(mealCmd.Args(), " ")
	if name == "" {
		log.Fatal("Meal name required")
	}
	if *off || proj.IsMealActive(name) {
		if err := proj.DeactivateMeal(ctx, name); err != nil {
			log.Fatalf("Failed to deactivate meal: %v", err)
		}
		fmt.Printf("Deactivated %s\n", name)
		return
	}
	if err := proj.ActivateMeal(ctx, name); err != nil {
		log.Fatalf("Failed to activate meal: %v", err)
	}
	fmt.Printf("Activated %s\n", name)
}

func runSuggest(proj *list.Projector, prefStore *prefs.Store, query string) {
	var out []string
	if strings.TrimSpace(query) == "" {
		out = prefStore.Suggestions()
		if len(out) > catalog.DefaultSuggestLimit {
			out = out[:catalog.DefaultSuggestLimit]
		}
	} else {
		out = proj.Suggest(query, catalog.DefaultSuggestLimit)
	}
	for _, name := range out {
		fmt.Println(name)
	}
}

func runFav(prefStore *prefs.Store, name string) {
	if strings.TrimSpace(name) == "" {
		for _, f := range prefStore.Favorites() {
			fmt.Println(f)
		}
		return
	}
	if err := prefStore.ToggleFavorite(name); err != nil {
		log.Fatalf("Failed to toggle favorite: %v", err)
	}
	if prefStore.IsFavorite(name) {
		fmt.Printf("Starred %s\n", name)
	} else {
		fmt.Printf("Unstarred %s\n", name)
	}
}

func runRecipes(ctx context.Context, svc *recipes.Service, args []string) {
	if len(args) == 0 {
		defs, err := svc.List(ctx)
		if err != nil {
			log.Fatalf("Failed to list recipes: %v", err)
		}
		for _, d := range defs {
			fmt.Printf("%s: %s\n", d.Name, strings.Join(d.Items, ", "))
		}
		return
	}
	switch args[0] {
	case "save":
		saveCmd := flag.NewFlagSet("recipes save", flag.ExitOnError)
		name := saveCmd.String("name", "", "Recipe name")
		items := saveCmd.String("items", "", "Comma- or newline-separated ingredients")
		saveCmd.Parse(args[1:])
		def, err := svc.Save(ctx, *name, *items)
		if err != nil {
			log.Fatalf("Failed to save recipe: %v", err)
		}
		fmt.Printf("Saved %s (%d items)\n", def.Name, len(def.Items))
	case "delete":
		name := strings.Join(args[1:], " ")
		if name == "" {
			log.Fatal("Recipe name required")
		}
		if err := svc.Delete(ctx, name); err != nil {
			log.Fatalf("Failed to delete recipe: %v", err)
		}
		fmt.Printf("Deleted %s\n", name)
	default:
		log.Fatalf("Unknown recipes subcommand: %s", args[0])
	}
}

func runStores(ctx context.Context, svc *stores.Service, args []string) {
	if len(args) == 0 {
		activeID := svc.ActiveID()
		for _, st := range svc.List() {
			mark := " "
			if st.ID == activeID {
				mark = "*"
			}
			fmt.Printf("%s %s  %s\n", mark, st.ID, st.Name)
		}
		return
	}
	switch args[0] {
	case "create":
		name := strings.Join(args[1:], " ")
		id, err := svc.Create(ctx, name)
		if err != nil {
			log.Fatalf("Failed to create store: %v", err)
		}
		fmt.Printf("Created store %s\n", id)
	case "use":
		id := ""
		if len(args) > 1 {
			id = args[1]
		}
		if err := svc.SetActive(ctx, id); err != nil {
			log.Fatalf("Failed to set active store: %v", err)
		}
	case "delete":
		if len(args) < 2 {
			log.Fatal("Store id required")
		}
		if err := svc.Delete(ctx, args[1]); err != nil {
			log.Fatalf("Failed to delete store: %v", err)
		}
	default:
		log.Fatalf("Unknown stores subcommand: %s", args[0])
	}
}

func runClip(ctx context.Context, svc *recipes.Service, args []string) {
	clipCmd := flag.NewFlagSet("clip", flag.ExitOnError)
	url := clipCmd.String("url", "", "Recipe page URL")
	clipCmd.Parse(args)
	if *url == "" {
		log.Fatal("Usage: grocify clip -url <url>")
	}

	clipped, err := clipper.NewClipper().ClipURL(*url)
	if err != nil {
		log.Fatalf("Failed to clip recipe: %v", err)
	}
	def, err := svc.Save(ctx, clipped.Title, strings.Join(clipped.Ingredients, "\n"))
	if err != nil {
		log.Fatalf("Failed to save clipped recipe: %v", err)
	}
	fmt.Printf("Saved %s (%d items)\n", def.Name, len(def.Items))
}

func runExport(view list.View, args []string) {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	out := exportCmd.String("out", "boodschappen.xlsx", "Output workbook path")
	exportCmd.Parse(args)
	if err := export.WriteXLSX(view, *out); err != nil {
		log.Fatalf("Failed to export list: %v", err)
	}
	fmt.Printf("Wrote %s\n", *out)
}

func runClear(ctx context.Context, proj *list.Projector) {
	snap, err := proj.ClearList(ctx)
	if err != nil {
		log.Fatalf("Failed to clear list: %v", err)
	}
	if snap.Empty() {
		fmt.Println("The list was already empty.")
		return
	}
	fmt.Println("Cleared the list.")
}
