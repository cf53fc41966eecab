package catalog

// Static built-in data for the household list: the canonical shelf order,
// the built-in meals, the weekly shopping groups and the item→section table.
// Customs layered on top of MealData live in the recipes collection.

// FallbackSection is the catch-all bucket for items the catalog doesn't know.
const FallbackSection = "Eigen"

// SectionOrder is the canonical ordering of shelf sections. Stores may carry
// their own reordering of the same names.
var SectionOrder = []string{
	"Groente & Fruit", "Vega", "Brood", "Ontbijt & Smeersels", "Zuivel",
	"Pasta & Rijst", "Kruiden & Specerijen", "Chips & Snacks", "Non-food",
	"Diepvries", "Toiletartikelen", "Eigen",
}

// MealData maps built-in meal names to their item lists. Duplicate entries
// are intentional: activating the meal adds one count per occurrence.
var MealData = map[string][]string{
	"Pizza":              {"Pizzadeeg", "Gesneden Champignons", "Paprika", "Paprika", "Rode Ui", "Tapenade", "Cashewnoten"},
	"Sticky Tofu":        {"Tofu", "Broccoli", "Rijst azijn", "Maizena", "Sojasaus", "Knoflook"},
	"Stamppot Spinazie":  {"Burger", "Kruimige Aardappelen", "Spinazie fijn diepvries"},
	"Pasta":              {"Paprika", "Paprika", "Gehakt", "Winterpeen", "Tomatenpuree", "Cherry Tomaten blik", "Saus zongedroogde tomaat", "Ui wit", "Knoflook"},
	"Chili Sin Carne":    {"Ui wit", "Knoflook", "Koriander", "Chilipoeder", "Komijnzaad", "Zoete Aardappels", "Zoete Aardappels", "Tomatenblokjes (400gr)", "Bosui", "Bosui", "Crème Fraîche (125ml)", "Avocado", "Maïskorrels (100gr)", "Kidneybonen (100gr)"},
	"Couscous Boerenkool": {"Ui wit", "Knoflook", "Chilipoeder", "Boerenkool (300gr)", "Couscous (200gr)", "Rozijnen (50gr)", "Kruidenbouillon (600ml)"},
}

// WeeklyGroups are recurring non-meal bundles added like meals.
var WeeklyGroups = map[string][]string{
	"Ontbijt & Lunch":  {"Brood", "Pindakaas", "Hagelslag", "Sojayoghurt", "Havermout", "Havermelk", "Cruesli", "Hummus", "Rozijnen (50gr)"},
	"Toiletartikelen":  {"Toiletpapier", "Zeep", "Wasmiddel", "Shampoo", "Tandpasta", "Afwasmiddel", "Keukenpapier"},
	"Vers":             {"Blauwe Bessen", "Bananen", "Avocado"},
	"Meisjes":          {"Groenvoer", "Hooi", "Brokjes"},
	"Baby":             {"Luiers", "Babydoekjes", "Kunstvoeding"},
	"Appelschilletjes": {"Chocola", "Chips", "Big Hit", "Drop", "Apekoppen"},
}

// ItemToSection maps known item names to their canonical section.
var ItemToSection = map[string]string{
	"Kruimige Aardappelen": "Groente & Fruit", "Paprika": "Groente & Fruit", "Rode Ui": "Groente & Fruit", "Ui wit": "Groente & Fruit",
	"Knoflook": "Groente & Fruit", "Broccoli": "Groente & Fruit", "Zoete Aardappels": "Groente & Fruit", "Gesneden Champignons": "Groente & Fruit",
	"Bosui": "Groente & Fruit", "Avocado": "Groente & Fruit", "Blauwe Bessen": "Groente & Fruit", "Bananen": "Groente & Fruit", "Winterpeen": "Groente & Fruit",
	"Boerenkool (300gr)": "Groente & Fruit", "Groenvoer": "Groente & Fruit",
	"Tofu": "Vega", "Burger": "Vega", "Gehakt": "Vega",
	"Brood": "Brood", "Pizzadeeg": "Brood",
	"Pindakaas": "Ontbijt & Smeersels", "Hagelslag": "Ontbijt & Smeersels", "Sojayoghurt": "Ontbijt & Smeersels",
	"Havermout": "Ontbijt & Smeersels", "Havermelk": "Ontbijt & Smeersels", "Cruesli": "Ontbijt & Smeersels",
	"Tapenade": "Ontbijt & Smeersels", "Hummus": "Ontbijt & Smeersels", "Rozijnen (50gr)": "Ontbijt & Smeersels",
	"Crème Fraîche (125ml)": "Zuivel",
	"Rijst azijn":           "Pasta & Rijst", "Maizena": "Pasta & Rijst", "Sojasaus": "Pasta & Rijst",
	"Tomatenpuree": "Pasta & Rijst", "Saus zongedroogde tomaat": "Pasta & Rijst", "Cherry Tomaten blik": "Pasta & Rijst",
	"Tomatenblokjes (400gr)": "Pasta & Rijst", "Couscous (200gr)": "Pasta & Rijst", "Kruidenbouillon (600ml)": "Pasta & Rijst",
	"Chilipoeder": "Kruiden & Specerijen", "Komijnzaad": "Kruiden & Specerijen", "Koriander": "Kruiden & Specerijen",
	"Cashewnoten": "Chips & Snacks", "Chocola": "Chips & Snacks", "Chips": "Chips & Snacks", "Big Hit": "Chips & Snacks", "Drop": "Chips & Snacks", "Apekoppen": "Chips & Snacks",
	"Hooi": "Non-food", "Brokjes": "Non-food", "Luiers": "Non-food", "Babydoekjes": "Non-food", "Kunstvoeding": "Non-food",
	"Spinazie fijn diepvries": "Diepvries",
	"Toiletpapier":            "Toiletartikelen", "Zeep": "Toiletartikelen", "Wasmiddel": "Toiletartikelen",
	"Shampoo": "Toiletartikelen", "Tandpasta": "Toiletartikelen", "Afwasmiddel": "Toiletartikelen", "Keukenpapier": "Toiletartikelen",
}

// Builtins merges the built-in meals and the weekly groups into one
// activatable table. Callers get a fresh copy.
func Builtins() map[string][]string {
	out := make(map[string][]string, len(MealData)+len(WeeklyGroups))
	for name, items := range MealData {
		out[name] = items
	}
	for name, items := range WeeklyGroups {
		out[name] = items
	}
	return out
}

// InferSection resolves an item name to its section, falling back to the
// catch-all bucket. The lookup tolerates case and diacritic differences.
func InferSection(name string) string {
	if sec, ok := ItemToSection[name]; ok {
		return sec
	}
	n := Normalize(name)
	for known, sec := range ItemToSection {
		if Normalize(known) == n {
			return sec
		}
	}
	return FallbackSection
}
