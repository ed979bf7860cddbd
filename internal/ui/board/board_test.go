package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Its-donkey/Symphony-apply/internal/ui/locale"
	"github.com/Its-donkey/Symphony-apply/internal/ui/model"
)

func reviewConfig() model.ApplicationConfig {
	return model.ApplicationConfig{
		IsOpen:       true,
		Season:       "Season 4",
		Dates:        model.Dates{Start: "Jan 1", Review: "Jan 15", End: "Feb 1"},
		CurrentStage: model.StageReview,
		Roles: model.Roles{
			Helper:    model.RoleOpen,
			Builder:   model.RoleClosed,
			Developer: model.RoleLimited,
		},
	}
}

func TestBuildMixedRoleStatuses(t *testing.T) {
	b := Build(reviewConfig(), locale.Resolve(locale.English))

	require.Len(t, b.Roles, 3)
	helper, builder, dev := b.Roles[0], b.Roles[1], b.Roles[2]

	assert.Equal(t, "helper", helper.ID)
	assert.Equal(t, model.RoleOpen, helper.Status)
	assert.Equal(t, "status-open", helper.StatusClass)
	assert.False(t, helper.Closed)
	assert.Equal(t, []string{"Age 16+", "Microphone"}, helper.Requirements)

	assert.Equal(t, "builder", builder.ID)
	assert.True(t, builder.Closed)
	assert.Equal(t, "status-closed", builder.StatusClass)
	assert.Equal(t, []string{"Portfolio", "WorldEdit"}, builder.Requirements)

	assert.Equal(t, "dev", dev.ID)
	assert.True(t, dev.Highlighted)
	assert.False(t, dev.Closed)
	assert.Equal(t, "status-limited", dev.StatusClass)
	assert.Equal(t, []string{"Portfolio", "Java/Kotlin"}, dev.Requirements)
}

func TestTimelineMarksCurrentStage(t *testing.T) {
	tl := BuildTimeline(reviewConfig(), locale.Resolve(locale.English))

	assert.Equal(t, 50, tl.Progress)
	assert.Equal(t, "Season 4", tl.Season)
	require.Len(t, tl.Steps, 3)

	var current []model.Stage
	for _, step := range tl.Steps {
		if step.Current {
			current = append(current, step.Stage)
		}
	}
	assert.Equal(t, []model.Stage{model.StageReview}, current)
	assert.Equal(t, "Jan 15", tl.Steps[1].Date)
	assert.Equal(t, "Reviewing", tl.Steps[1].Label)
	assert.True(t, tl.Steps[0].Reached)
	assert.False(t, tl.Steps[2].Reached)
}

func TestProgressPerStage(t *testing.T) {
	assert.Equal(t, 15, Progress(model.StageStart))
	assert.Equal(t, 50, Progress(model.StageReview))
	assert.Equal(t, 100, Progress(model.StageEnd))
}

func TestTimelineIgnoresDates(t *testing.T) {
	cfg := reviewConfig()
	cfg.CurrentStage = model.StageStart
	cfg.Dates = model.Dates{Start: "2099-01-01", Review: "2000-01-01", End: "1999-01-01"}

	tl := BuildTimeline(cfg, locale.Resolve(locale.English))
	assert.True(t, tl.Steps[0].Current)
	assert.Equal(t, 15, tl.Progress)
}

func TestBuildLocalized(t *testing.T) {
	b := Build(reviewConfig(), locale.Resolve(locale.Indonesian))
	assert.Equal(t, "Posisi Tersedia", b.Title)
	assert.Equal(t, []string{"Umur 16+", "Mikrofon"}, b.Roles[0].Requirements)
}

func TestBuildNavbar(t *testing.T) {
	nav := BuildNavbar(locale.English, locale.Resolve(locale.English))
	assert.Equal(t, ServerAddress, nav.ServerAddress)
	assert.Equal(t, locale.Indonesian, nav.ToggleTo)
	require.Len(t, nav.Links, 3)
	assert.Equal(t, "#application", nav.Links[0].Href)
	assert.Equal(t, "#roles", nav.Links[1].Href)
}

func TestTerminalLines(t *testing.T) {
	lines := TerminalLines()
	require.Len(t, lines, 5)
	assert.Equal(t, "warn", lines[2].Level)
	assert.Equal(t, "success", lines[4].Level)
	assert.Equal(t, "info", lines[0].Level)
	for i := 1; i < len(lines); i++ {
		assert.Greater(t, lines[i].DelayMS, lines[i-1].DelayMS)
	}
}
