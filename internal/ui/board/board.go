// Package board builds the view models for the staff status board, the
// navbar and the terminal shown after a successful application.
package board

import (
	"github.com/Its-donkey/Symphony-apply/internal/ui/locale"
	"github.com/Its-donkey/Symphony-apply/internal/ui/model"
)

// ServerAddress is the game server address shown in the navbar.
const ServerAddress = "play.symphony.gg"

// Section anchors linked from the navbar.
const (
	AnchorApplication = "application"
	AnchorRoles       = "roles"
)

// RoleCard is one staff role as rendered on the board.
type RoleCard struct {
	ID           string
	Icon         string
	Title        string
	Description  string
	Status       model.RoleStatus
	StatusClass  string
	Closed       bool
	Highlighted  bool
	Requirements []string
}

// TimelineStep is one stage of the recruitment timeline.
type TimelineStep struct {
	Stage   model.Stage
	Label   string
	Date    string
	Current bool
	Reached bool
	Align   string
}

// Timeline is the recruitment timeline card.
type Timeline struct {
	Title       string
	Season      string
	Description string
	Progress    int
	Steps       []TimelineStep
	NowLabel    string
}

// Board is the whole status board section.
type Board struct {
	Title    string
	Subtitle string
	Timeline Timeline
	Roles    []RoleCard
}

// Build assembles the status board for cfg in the given language.
func Build(cfg model.ApplicationConfig, text locale.Strings) Board {
	return Board{
		Title:    text.BoardTitle,
		Subtitle: text.BoardSubtitle,
		Timeline: BuildTimeline(cfg, text),
		Roles:    RoleCards(cfg.Roles, text),
	}
}

// RoleCards lists the helper, builder and developer cards in display order.
func RoleCards(roles model.Roles, text locale.Strings) []RoleCard {
	return []RoleCard{
		newRoleCard("helper", "shield", text.RoleHelper, text.RoleHelperDesc, roles.Helper,
			text.ReqAge, text.ReqMic),
		newRoleCard("builder", "hammer", text.RoleBuilder, text.RoleBuilderDesc, roles.Builder,
			text.ReqPortfolio, "WorldEdit"),
		newRoleCard("dev", "terminal", text.RoleDeveloper, text.RoleDeveloperDesc, roles.Developer,
			text.ReqPortfolio, "Java/Kotlin"),
	}
}

func newRoleCard(id, icon, title, desc string, status model.RoleStatus, reqs ...string) RoleCard {
	return RoleCard{
		ID:           id,
		Icon:         icon,
		Title:        title,
		Description:  desc,
		Status:       status,
		StatusClass:  StatusClass(status),
		Closed:       status == model.RoleClosed,
		Highlighted:  status == model.RoleLimited,
		Requirements: reqs,
	}
}

// StatusClass maps a role status to its badge colour class.
func StatusClass(status model.RoleStatus) string {
	switch status {
	case model.RoleClosed:
		return "status-closed"
	case model.RoleLimited:
		return "status-limited"
	default:
		return "status-open"
	}
}

// Progress returns the timeline bar width, in percent, for a stage.
func Progress(stage model.Stage) int {
	switch stage {
	case model.StageEnd:
		return 100
	case model.StageReview:
		return 50
	default:
		return 15
	}
}

// BuildTimeline renders the three stages of cfg with the NOW marker on the
// stage the backend reports. The stage is never derived from the dates.
func BuildTimeline(cfg model.ApplicationConfig, text locale.Strings) Timeline {
	aligns := []string{"start", "center", "end"}
	currentIndex := 0
	for i, stage := range model.Stages {
		if stage == cfg.CurrentStage {
			currentIndex = i
		}
	}
	steps := make([]TimelineStep, 0, len(model.Stages))
	for i, stage := range model.Stages {
		steps = append(steps, TimelineStep{
			Stage:   stage,
			Label:   text.StageLabel(stage),
			Date:    cfg.Dates.For(stage),
			Current: stage == cfg.CurrentStage,
			Reached: i <= currentIndex,
			Align:   aligns[i],
		})
	}
	return Timeline{
		Title:       text.TimelineTitle,
		Season:      cfg.Season,
		Description: text.TimelineDesc,
		Progress:    Progress(cfg.CurrentStage),
		Steps:       steps,
		NowLabel:    text.Now,
	}
}

// NavLink is a navbar anchor.
type NavLink struct {
	Label string
	Href  string
}

// Navbar is the fixed top navigation.
type Navbar struct {
	Links         []NavLink
	ServerAddress string
	Lang          string
	ToggleTo      locale.Lang
}

// BuildNavbar returns the navbar for lang.
func BuildNavbar(lang locale.Lang, text locale.Strings) Navbar {
	return Navbar{
		Links: []NavLink{
			{Label: text.NavApply, Href: "#" + AnchorApplication},
			{Label: text.NavRoles, Href: "#" + AnchorRoles},
			{Label: text.NavWiki, Href: "#"},
		},
		ServerAddress: ServerAddress,
		Lang:          text.LangLabel,
		ToggleTo:      lang.Toggle(),
	}
}
