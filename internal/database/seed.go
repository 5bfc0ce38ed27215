package database

import (
	"gorm.io/gorm"

	"github.com/example/farmstellar/internal/models"
)

type questSeed struct {
	Slug        string
	Title       string
	Description string
	Stages      []string
}

// Stage titles double as short instructions; detailed stage copy lives in
// the frontend. Rewards come from models.QuestXPRewards so the catalog and
// the award path can never disagree.
var questCatalog = []questSeed{
	{
		Slug:        "soil_scout",
		Title:       "Soil Scout",
		Description: "Learn to read your soil: texture, smell and life underneath.",
		Stages:      []string{"Dig a hand-depth test pit", "Do the jar sedimentation test", "Record what you found"},
	},
	{
		Slug:        "crop_quest",
		Title:       "Crop Quest",
		Description: "Pick a crop suited to your soil and season, and plan its cycle.",
		Stages:      []string{"Match crops to your soil type", "Draft a sowing calendar", "Prepare the seed bed"},
	},
	{
		Slug:        "compost_kickoff",
		Title:       "Compost Kickoff",
		Description: "Start a compost pile from farm and kitchen waste.",
		Stages:      []string{"Collect greens and browns", "Layer and wet the pile", "Turn it after two weeks"},
	},
	{
		Slug:        "zero_waste",
		Title:       "Zero Waste Farm",
		Description: "Close the loop: every output on the farm becomes an input.",
		Stages:      []string{"Map your waste streams", "Route each stream to a use", "Run one waste-free week"},
	},
	{
		Slug:        "mini_garden",
		Title:       "Mini Garden",
		Description: "Grow a small vegetable bed for the household.",
		Stages:      []string{"Mark out a raised bed", "Sow three vegetables", "Harvest and weigh the yield"},
	},
	{
		Slug:        "mulch_master",
		Title:       "Mulch Master",
		Description: "Cover bare soil to hold moisture and feed soil life.",
		Stages:      []string{"Gather crop residue", "Mulch one full bed", "Compare soil moisture after a week"},
	},
	{
		Slug:        "boll_keeper",
		Title:       "Boll Keeper",
		Description: "Protect a cotton crop through square and boll formation.",
		Stages:      []string{"Scout for bollworm weekly", "Set pheromone traps", "Apply a neem-based spray if thresholds hit"},
	},
	{
		Slug:        "coconut_basin",
		Title:       "Coconut Basin",
		Description: "Build water-harvesting basins around coconut palms.",
		Stages:      []string{"Dig basins at the drip line", "Line basins with husk", "Mulch and monitor moisture"},
	},
	{
		Slug:        "coconut_bioenzyme",
		Title:       "Coconut Bioenzyme",
		Description: "Ferment a bioenzyme drench from coconut and jaggery.",
		Stages:      []string{"Mix peel, jaggery and water", "Ferment for thirty days, venting weekly", "Dilute and drench the basins"},
	},
	{
		Slug:        "rust_shield",
		Title:       "Rust Shield",
		Description: "Spot and manage leaf rust before it spreads.",
		Stages:      []string{"Learn the early rust signs", "Scout the field edge to edge", "Treat hotspots and re-check"},
	},
	{
		Slug:        "biodiversity_strip",
		Title:       "Biodiversity Strip",
		Description: "Plant a flowering strip for predators and pollinators.",
		Stages:      []string{"Choose native flowering species", "Sow a field-edge strip", "Count visiting insects over a month"},
	},
	{
		Slug:        "rainwater_hero",
		Title:       "Rainwater Hero",
		Description: "Capture roof and field runoff before it leaves the farm.",
		Stages:      []string{"Map how water moves on your land", "Dig a contour trench or farm pond", "Measure capture after the next rain"},
	},
	{
		Slug:        "biochar_maker",
		Title:       "Biochar Maker",
		Description: "Turn woody waste into charged biochar for your beds.",
		Stages:      []string{"Build a low-smoke burn pit", "Quench and crush the char", "Charge it in compost and apply"},
	},
	{
		Slug:        "jeevamrutham",
		Title:       "Jeevamrutham",
		Description: "Brew the classic microbial culture and feed it to your soil.",
		Stages:      []string{"Gather dung, urine, jaggery and gram flour", "Ferment for a week, stirring daily", "Apply with irrigation water"},
	},
}

// SeedQuests inserts any catalog quests that are not present yet. Existing
// rows are left untouched so admin edits survive restarts.
func SeedQuests(conn *gorm.DB) error {
	for _, seed := range questCatalog {
		var existing models.Quest
		err := conn.Where("slug = ?", seed.Slug).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		quest := models.Quest{
			Slug:        seed.Slug,
			Title:       seed.Title,
			Description: seed.Description,
			XPReward:    models.QuestXPRewards[seed.Slug],
			Active:      true,
		}
		for i, title := range seed.Stages {
			quest.Stages = append(quest.Stages, models.QuestStage{
				Position: i,
				Title:    title,
			})
		}

		if err := conn.Create(&quest).Error; err != nil {
			return err
		}
	}

	return nil
}
