package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"borderforge/internal/model"
	"borderforge/internal/settings"
)

type formFieldKind int

const (
	fieldString formFieldKind = iota
	fieldInt
	fieldBool
	fieldSelect
)

// presetKey is a form-only field; choosing a preset fills the fields it covers.
const (
	presetKey  = "preset"
	presetNone = "none"
)

type formField struct {
	Key     string
	Label   string
	Help    string
	Kind    formFieldKind
	Value   string
	Options []string
}

type configureForm struct {
	Title  string
	Fields []formField
	Index  int
	Input  textinput.Model
	Error  string
	Saving bool
}

type configureModel struct {
	settingsPath string
	base         settings.Settings
	form         *configureForm
	width        int
	height       int

	result    settings.Settings
	accepted  bool
	cancelled bool
}

type configureSavedMsg struct {
	settings settings.Settings
	err      error
}

var (
	formTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	formMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	formErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	formPanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	formSelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
)

var configureFields = []formField{
	{Key: presetKey, Label: "Preset", Help: "Fills ratio, long side, size window and quality", Kind: fieldSelect, Options: presetOptions()},
	{Key: "inputPath", Label: "Input Folder", Help: "Folder with jpg/png/tif images (not recursive)", Kind: fieldString},
	{Key: "rememberFolders", Label: "Remember Folders", Help: "Needed to resume after a crash", Kind: fieldBool},
	{Key: "useCustomOut", Label: "Custom Output", Help: "Off writes to a numbered 'With Borders' folder inside the input", Kind: fieldBool},
	{Key: "customOutPath", Label: "Output Folder", Help: "Used when Custom Output is on", Kind: fieldString},
	{Key: "ratioPreset", Label: "Aspect Ratio", Help: "Pick custom to type width and height below", Kind: fieldSelect, Options: settings.RatioPresets},
	{Key: "ratioW", Label: "Ratio Width", Kind: fieldInt},
	{Key: "ratioH", Label: "Ratio Height", Kind: fieldInt},
	{Key: "ignoreRatio", Label: "Ignore Ratio", Help: "Pad evenly instead of fitting a ratio", Kind: fieldBool},
	{Key: "longSide", Label: "Long Side px", Help: "Final canvas long side", Kind: fieldInt},
	{Key: "padding", Label: "Padding px", Help: "Minimum border around the photo", Kind: fieldInt},
	{Key: "ignoreBorder", Label: "No Border", Help: "Resize only", Kind: fieldBool},
	{Key: "borderMode", Label: "Border Color", Help: "AUTO picks black or white; AUTO_FILENAME honours -White-/-Black-/-Average-/-Lum- prefixes", Kind: fieldSelect, Options: model.BorderModes},
	{Key: "borderHex", Label: "Custom Hex", Help: "Used when Border Color is CUSTOM", Kind: fieldString},
	{Key: "jpegQuality", Label: "JPEG Quality", Help: "0-12, start of the size search", Kind: fieldInt},
	{Key: "minKB", Label: "Min KB", Help: "0 disables the lower bound", Kind: fieldInt},
	{Key: "maxKB", Label: "Max KB", Help: "0 disables the upper bound", Kind: fieldInt},
	{Key: "ignoreFileSizeLimits", Label: "Ignore Size Limits", Help: "Save once at JPEG Quality", Kind: fieldBool},
	{Key: "suffix", Label: "File Suffix", Help: "Appended to every output name", Kind: fieldString},
	{Key: "srgbMode", Label: "sRGB", Help: "AUTO converts non-sRGB inputs, FORCE converts all", Kind: fieldSelect, Options: model.SRGBModes},
	{Key: "embedProfile", Label: "Embed Profile", Kind: fieldBool},
	{Key: "setPPI", Label: "Set PPI", Kind: fieldBool},
	{Key: "ppi", Label: "PPI", Kind: fieldInt},
	{Key: "skipExisting", Label: "Skip Existing", Help: "Leave outputs that already exist", Kind: fieldBool},
	{Key: "silentMode", Label: "Silent Mode", Help: "Log failures and continue instead of stopping", Kind: fieldBool},
	{Key: "chunkSize", Label: "Chunk Size", Help: "Files between deep memory cleanups", Kind: fieldInt},
	{Key: "cooldownMs", Label: "Chunk Cooldown ms", Kind: fieldInt},
	{Key: "scratchMaxRetries", Label: "Out-of-Space Retries", Help: "Retries when the disk or memory runs out", Kind: fieldInt},
	{Key: "scratchRetryCooldownMs", Label: "Retry Cooldown ms", Kind: fieldInt},
}

// presetFieldKeys are the fields a preset overwrites.
var presetFieldKeys = []string{"ratioPreset", "ratioW", "ratioH", "ignoreRatio", "longSide", "jpegQuality", "minKB", "maxKB"}

func presetOptions() []string {
	out := []string{presetNone}
	for _, p := range settings.Presets {
		out = append(out, p.Name)
	}
	return out
}

func runConfigure(args []string) error {
	fs := flag.NewFlagSet("configure", flag.ContinueOnError)
	home := fs.String("home", "", "state directory (default $BORDERFORGE_HOME or the user config dir)")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !stdinIsTTY() {
		return errors.New("configure requires an interactive terminal (TTY); use `borderforge settings set` instead")
	}

	paths, err := resolvePaths(*home)
	if err != nil {
		return err
	}
	s, _, err := settings.Load(paths.Settings)
	if err != nil {
		return err
	}
	_, accepted, err := runConfigureForm(paths.Settings, s)
	if err != nil {
		return err
	}
	if !accepted {
		fmt.Println("configuration cancelled")
		return nil
	}
	fmt.Printf("settings saved to %s\n", paths.Settings)
	return nil
}

// runConfigureForm shows the form prefilled from s. The accepted settings are
// saved before it returns.
func runConfigureForm(settingsPath string, s settings.Settings) (settings.Settings, bool, error) {
	m := newConfigureModel(settingsPath, s, 0)
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "tty") {
			return s, false, errors.New("configure requires an interactive terminal (TTY)")
		}
		return s, false, err
	}
	fm, ok := final.(configureModel)
	if !ok || !fm.accepted {
		return s, false, nil
	}
	return fm.result, true, nil
}

func newConfigureModel(settingsPath string, s settings.Settings, width int) configureModel {
	return configureModel{
		settingsPath: settingsPath,
		base:         s,
		form:         newConfigureForm(s, width),
		width:        width,
	}
}

func (m configureModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m configureModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.form = resizeFormInput(m.form, m.width)
		return m, nil
	case configureSavedMsg:
		if msg.err != nil {
			m.form.Error = msg.err.Error()
			m.form.Saving = false
			return m, nil
		}
		m.result = msg.settings
		m.accepted = true
		return m, tea.Quit
	case tea.KeyMsg:
		return m.updateForm(msg)
	}
	return m, nil
}

func (m configureModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form.Saving {
		return m, nil
	}

	key := strings.ToLower(msg.String())
	switch key {
	case "ctrl+c", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "up", "shift+tab":
		m.form.commitInput()
		if m.form.Index > 0 {
			m.form.Index--
		}
		m.form.loadFieldIntoInput()
		return m, nil
	case "down", "tab":
		m.form.commitInput()
		if m.form.Index < len(m.form.Fields)-1 {
			m.form.Index++
		}
		m.form.loadFieldIntoInput()
		return m, nil
	case " ", "space", "right", "l":
		switch m.form.currentField().Kind {
		case fieldBool:
			m.form.toggleBoolField()
			return m, nil
		case fieldSelect:
			m.form.stepSelectOption(1)
			return m, nil
		}
	case "left", "h":
		switch m.form.currentField().Kind {
		case fieldBool:
			m.form.toggleBoolField()
			return m, nil
		case fieldSelect:
			m.form.stepSelectOption(-1)
			return m, nil
		}
	case "y":
		if m.form.currentField().Kind == fieldBool {
			m.form.setBoolField(true)
			return m, nil
		}
	case "n":
		if m.form.currentField().Kind == fieldBool {
			m.form.setBoolField(false)
			return m, nil
		}
	case "enter", "ctrl+s":
		m.form.commitInput()
		if m.form.Index < len(m.form.Fields)-1 && key != "ctrl+s" {
			m.form.Index++
			m.form.loadFieldIntoInput()
			return m, nil
		}
		s, err := m.form.toSettings(m.base)
		if err != nil {
			m.form.Error = err.Error()
			return m, nil
		}
		m.form.Error = ""
		m.form.Saving = true
		return m, saveConfigureCmd(m.settingsPath, s)
	}

	kind := m.form.currentField().Kind
	if kind == fieldBool || kind == fieldSelect {
		return m, nil
	}
	var cmd tea.Cmd
	m.form.Input, cmd = m.form.Input.Update(msg)
	m.form.Fields[m.form.Index].Value = m.form.Input.Value()
	return m, cmd
}

func saveConfigureCmd(path string, s settings.Settings) tea.Cmd {
	return func() tea.Msg {
		if err := saveAccepted(path, s); err != nil {
			return configureSavedMsg{err: err}
		}
		return configureSavedMsg{settings: s}
	}
}

func (m configureModel) View() string {
	if m.form == nil {
		return ""
	}
	width := m.width
	if width <= 0 {
		width = 100
	}
	height := m.height
	if height <= 0 {
		height = 30
	}

	header := formTitleStyle.Render(m.form.Title)
	hints := formMutedStyle.Render("tab/shift+tab or up/down: move | left/right/space: change | y/n: set yes/no | enter: next/save | ctrl+s: save | esc: cancel")

	maxRows := clampInt(height-12, 5, len(m.form.Fields))
	start, end := listWindow(len(m.form.Fields), m.form.Index, maxRows)
	lines := make([]string, 0, maxRows+2)
	if start > 0 {
		lines = append(lines, formMutedStyle.Render("..."))
	}
	for i := start; i < end; i++ {
		f := m.form.Fields[i]
		display := strings.TrimSpace(f.Value)
		if f.Kind == fieldBool {
			v, _ := parseBool(display)
			display = yesNo(v)
		}
		if display == "" {
			display = formMutedStyle.Render("(empty)")
		}
		if f.Kind == fieldSelect {
			display = "[" + display + "]"
		}
		line := wrapOrTrim(fmt.Sprintf("%s: %s", f.Label, display), maxInt(width-8, 20))
		if i == m.form.Index {
			line = formSelStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	if end < len(m.form.Fields) {
		lines = append(lines, formMutedStyle.Render("..."))
	}

	curr := m.form.currentField()
	inputLabel := fmt.Sprintf("\n%s\n", curr.Label)
	inputHelp := ""
	if strings.TrimSpace(curr.Help) != "" {
		inputHelp = formMutedStyle.Render(curr.Help) + "\n"
	}
	input := m.form.Input.View()
	status := ""
	if m.form.Saving {
		status = formMutedStyle.Render("\nSaving...")
	}
	if strings.TrimSpace(m.form.Error) != "" {
		status = "\n" + formErrorStyle.Render(m.form.Error)
	}

	panel := formPanelStyle.Width(maxInt(width-2, 40)).Render(strings.Join(lines, "\n") + inputLabel + inputHelp + input + status)
	return lipgloss.JoinVertical(lipgloss.Left, header, hints, panel)
}

func newConfigureForm(s settings.Settings, width int) *configureForm {
	f := &configureForm{Title: "BorderForge Settings"}
	for _, def := range configureFields {
		field := def
		field.Options = append([]string(nil), def.Options...)
		if field.Key == presetKey {
			field.Value = presetNone
		} else {
			v, _ := settings.Get(s, field.Key)
			if field.Kind == fieldBool {
				b, _ := settings.ParseBool(v)
				v = boolToYN(b)
			}
			field.Value = v
		}
		f.Fields = append(f.Fields, field)
	}

	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 1024
	input.Width = clampInt(width-8, 20, 120)
	f.Input = input
	f.loadFieldIntoInput()
	f.Input.Focus()
	return f
}

func (f *configureForm) currentField() formField {
	if len(f.Fields) == 0 {
		return formField{}
	}
	f.Index = clampInt(f.Index, 0, len(f.Fields)-1)
	return f.Fields[f.Index]
}

func (f *configureForm) fieldIndex(key string) int {
	for i, field := range f.Fields {
		if field.Key == key {
			return i
		}
	}
	return -1
}

func (f *configureForm) setValue(key, value string) {
	if i := f.fieldIndex(key); i >= 0 {
		f.Fields[i].Value = value
	}
}

func (f *configureForm) commitInput() {
	if f == nil || len(f.Fields) == 0 {
		return
	}
	kind := f.Fields[f.Index].Kind
	if kind == fieldBool || kind == fieldSelect {
		return
	}
	f.Fields[f.Index].Value = strings.TrimSpace(f.Input.Value())
}

func (f *configureForm) loadFieldIntoInput() {
	if f == nil || len(f.Fields) == 0 {
		return
	}
	f.Input.SetValue(f.Fields[f.Index].Value)
	f.Input.CursorEnd()
}

func (f *configureForm) toggleBoolField() {
	curr := f.currentField()
	if curr.Kind != fieldBool {
		return
	}
	v, _ := parseBool(curr.Value)
	f.setBoolField(!v)
}

func (f *configureForm) setBoolField(v bool) {
	if f.currentField().Kind != fieldBool {
		return
	}
	f.Fields[f.Index].Value = boolToYN(v)
	f.loadFieldIntoInput()
}

func (f *configureForm) stepSelectOption(step int) {
	curr := f.currentField()
	if curr.Kind != fieldSelect || len(curr.Options) == 0 {
		return
	}
	pos := 0
	for i, opt := range curr.Options {
		if strings.EqualFold(opt, strings.TrimSpace(curr.Value)) {
			pos = i
			break
		}
	}
	n := len(curr.Options)
	pos = ((pos+step)%n + n) % n
	f.Fields[f.Index].Value = curr.Options[pos]

	switch curr.Key {
	case presetKey:
		f.applyPreset(curr.Options[pos])
	case "ratioPreset":
		if w, h, err := settings.ParseRatio(curr.Options[pos]); err == nil {
			f.setValue("ratioW", fmt.Sprint(w))
			f.setValue("ratioH", fmt.Sprint(h))
		}
	}
	f.loadFieldIntoInput()
}

func (f *configureForm) applyPreset(name string) {
	p, ok := settings.FindPreset(name)
	if !ok {
		return
	}
	tmp := settings.Default()
	p.Apply(&tmp)
	for _, key := range presetFieldKeys {
		v, _ := settings.Get(tmp, key)
		if i := f.fieldIndex(key); i >= 0 && f.Fields[i].Kind == fieldBool {
			b, _ := settings.ParseBool(v)
			v = boolToYN(b)
		}
		f.setValue(key, v)
	}
}

// toSettings validates every field on top of base. On error the offending
// field is focused.
func (f *configureForm) toSettings(base settings.Settings) (settings.Settings, error) {
	pairs := make([][2]string, 0, len(f.Fields))
	for _, field := range f.Fields {
		if field.Key == presetKey {
			continue
		}
		v := strings.TrimSpace(field.Value)
		if field.Kind == fieldBool {
			if _, ok := parseBool(v); !ok {
				f.focus(field.Key)
				return base, fmt.Errorf("%s must be y or n", strings.ToLower(field.Label))
			}
		}
		pairs = append(pairs, [2]string{field.Key, v})
	}

	s := base
	if err := settings.SetAll(&s, pairs); err != nil {
		var vErr *model.ValidationError
		if errors.As(err, &vErr) {
			f.focus(vErr.Field)
		}
		return base, err
	}

	if s.InputPath == "" {
		f.focus("inputPath")
		return base, errors.New("input folder is required")
	}
	if info, err := os.Stat(s.InputPath); err != nil || !info.IsDir() {
		f.focus("inputPath")
		return base, fmt.Errorf("input folder %s does not exist", s.InputPath)
	}
	if s.UseCustomOut && s.CustomOutPath == "" {
		f.focus("customOutPath")
		return base, errors.New("output folder is required when custom output is on")
	}
	return s, nil
}

func (f *configureForm) focus(key string) {
	if i := f.fieldIndex(key); i >= 0 {
		f.Index = i
		f.loadFieldIntoInput()
	}
}
