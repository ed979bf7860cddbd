package server

import (
	"bytes"
	"net/http"

	"github.com/Its-donkey/Symphony-apply/internal/ui/board"
	"github.com/Its-donkey/Symphony-apply/internal/ui/locale"
	"github.com/Its-donkey/Symphony-apply/internal/ui/model"
	"github.com/Its-donkey/Symphony-apply/internal/ui/state"
)

type basePageData struct {
	PageTitle      string
	StylesheetPath string
	View           string
	Lang           locale.Lang
	Text           locale.Strings
	RefreshSeconds int
	CurrentYear    int
}

type mainPageData struct {
	basePageData
	Nav    board.Navbar
	Config model.ApplicationConfig
	Board  board.Board
	Form   applicationFormView
}

type applicationFormView struct {
	Open          bool
	State         model.SubmitFormState
	Fields        []formField
	Action        string
	AnotherAction string
	Terminal      []board.TerminalLine
}

type formField struct {
	Name        string
	Label       string
	Type        string
	Placeholder string
	Value       string
	Multiline   bool
	Missing     bool
}

var fieldInputs = map[string]struct {
	kind        string
	placeholder string
	multiline   bool
}{
	model.FieldIGN:        {kind: "text", placeholder: "e.g. Steve"},
	model.FieldDiscord:    {kind: "text", placeholder: "username#0000"},
	model.FieldAge:        {kind: "number", placeholder: "16"},
	model.FieldTimezone:   {kind: "text", placeholder: "EST / WIB"},
	model.FieldRole:       {kind: "text", placeholder: "Helper, Builder..."},
	model.FieldExperience: {multiline: true, placeholder: "..."},
	model.FieldReason:     {multiline: true, placeholder: "..."},
}

func (s *server) buildBasePageData(view state.View, lang locale.Lang) basePageData {
	text := locale.Resolve(lang)
	data := basePageData{
		PageTitle:      "Symphony Network - " + text.FormTitle,
		StylesheetPath: s.stylesPath,
		View:           view.String(),
		Lang:           lang,
		Text:           text,
		CurrentYear:    s.currentYear,
	}
	if view == state.ViewLoading {
		data.RefreshSeconds = loadingRefreshSeconds
	}
	return data
}

func (s *server) buildMainPageData(sess *state.Session, cfg model.ApplicationConfig) mainPageData {
	lang := sess.Lang()
	base := s.buildBasePageData(state.ViewMain, lang)
	return mainPageData{
		basePageData: base,
		Nav:          board.BuildNavbar(lang, base.Text),
		Config:       cfg,
		Board:        board.Build(cfg, base.Text),
		Form:         buildFormView(cfg.IsOpen, sess.Form.Snapshot(), base.Text),
	}
}

func buildFormView(open bool, snapshot model.SubmitFormState, text locale.Strings) applicationFormView {
	fields := make([]formField, 0, len(model.FieldNames))
	for _, name := range model.FieldNames {
		input := fieldInputs[name]
		fields = append(fields, formField{
			Name:        name,
			Label:       text.FieldLabel(name),
			Type:        input.kind,
			Placeholder: input.placeholder,
			Value:       snapshot.Fields.Get(name),
			Multiline:   input.multiline,
			Missing:     snapshot.Missing[name],
		})
	}
	view := applicationFormView{
		Open:          open,
		State:         snapshot,
		Fields:        fields,
		Action:        "/apply",
		AnotherAction: "/apply/another",
	}
	if snapshot.Status == model.StatusSuccess {
		view.Terminal = board.TerminalLines()
	}
	return view
}

// renderView executes the named view into a buffer so template failures
// surface as a clean 500.
func (s *server) renderView(w http.ResponseWriter, r *http.Request, name string, status int, data any) {
	tmpl, ok := s.templates[name]
	if !ok {
		s.logger.FromContext(r.Context()).Error("general", "template missing", nil, map[string]any{"template": name})
		http.Error(w, "template missing", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		s.logger.FromContext(r.Context()).Error("general", "render template", err, map[string]any{"template": name})
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
