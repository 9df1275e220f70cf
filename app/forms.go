package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/pdrolopes/syncmanager_TUI/settings"
	"github.com/pdrolopes/syncmanager_TUI/styles"
)

// The three tabs next to the overview are plain input forms. They own their
// textinputs and focus handling; the submit buttons are zone-marked and
// handled by the app's click handler, which reads the values out.

// ---------------------------- add device -------------------------------

type AddDeviceForm struct {
	zonePrefix string
	idInput    textinput.Model
	nameInput  textinput.Model
}

func newAddDeviceForm() AddDeviceForm {
	idInput := textinput.New()
	idInput.Placeholder = "XXXXXXX-XXXXXXX-XXXXXXX-XXXXXXX-XXXXXXX-XXXXXXX-XXXXXXX-XXXXXXX"
	idInput.CharLimit = 63
	idInput.Width = 66

	nameInput := textinput.New()
	nameInput.Placeholder = "name shown in the device list"
	nameInput.CharLimit = 50
	nameInput.Width = 40

	return AddDeviceForm{
		zonePrefix: zone.NewPrefix(),
		idInput:    idInput,
		nameInput:  nameInput,
	}
}

func (f AddDeviceForm) SubmitMark() string { return f.zonePrefix + "submit" }

func (f AddDeviceForm) Values() (deviceID, name string) {
	return strings.TrimSpace(f.idInput.Value()), strings.TrimSpace(f.nameInput.Value())
}

func (f *AddDeviceForm) Reset() {
	f.idInput.SetValue("")
	f.nameInput.SetValue("")
}

func (f AddDeviceForm) Update(msg tea.Msg) (AddDeviceForm, tea.Cmd) {
	if mouse, ok := msg.(tea.MouseMsg); ok {
		if mouse.Action != tea.MouseActionRelease || mouse.Button != tea.MouseButtonLeft {
			return f, nil
		}
		if zone.Get(f.zonePrefix + "id").InBounds(mouse) {
			f.nameInput.Blur()
			return f, f.idInput.Focus()
		}
		if zone.Get(f.zonePrefix + "name").InBounds(mouse) {
			f.idInput.Blur()
			return f, f.nameInput.Focus()
		}
		return f, nil
	}

	var cmd1, cmd2 tea.Cmd
	f.idInput, cmd1 = f.idInput.Update(msg)
	f.nameInput, cmd2 = f.nameInput.Update(msg)
	return f, tea.Batch(cmd1, cmd2)
}

func (f AddDeviceForm) View() string {
	var doc strings.Builder
	doc.WriteString("Device ID\n")
	doc.WriteString(zone.Mark(f.zonePrefix+"id", f.idInput.View()))
	doc.WriteString("\n\nDevice Name\n")
	doc.WriteString(zone.Mark(f.zonePrefix+"name", f.nameInput.View()))
	doc.WriteString("\n\n")
	doc.WriteString(zone.Mark(f.SubmitMark(), styles.PositiveBtn.Render("Add Device")))
	doc.WriteString("\n\n")
	doc.WriteString(styles.Muted.Render("Add the device here first, then set its ID for a user in the Settings tab."))
	return doc.String()
}

// ---------------------------- add folder -------------------------------

type AddFolderForm struct {
	zonePrefix string
	labelInput textinput.Model
	pathInput  textinput.Model
	private    bool
}

func newAddFolderForm() AddFolderForm {
	labelInput := textinput.New()
	labelInput.Placeholder = "Documents"
	labelInput.CharLimit = 50
	labelInput.Width = 40

	pathInput := textinput.New()
	pathInput.Placeholder = "/srv/sync/documents"
	pathInput.CharLimit = 200
	pathInput.Width = 60

	return AddFolderForm{
		zonePrefix: zone.NewPrefix(),
		labelInput: labelInput,
		pathInput:  pathInput,
	}
}

func (f AddFolderForm) SubmitMark() string { return f.zonePrefix + "submit" }

func (f AddFolderForm) Values() (label, path string, private bool) {
	return strings.TrimSpace(f.labelInput.Value()), strings.TrimSpace(f.pathInput.Value()), f.private
}

func (f *AddFolderForm) Reset() {
	f.labelInput.SetValue("")
	f.pathInput.SetValue("")
	f.private = false
}

func (f AddFolderForm) Update(msg tea.Msg) (AddFolderForm, tea.Cmd) {
	if mouse, ok := msg.(tea.MouseMsg); ok {
		if mouse.Action != tea.MouseActionRelease || mouse.Button != tea.MouseButtonLeft {
			return f, nil
		}
		if zone.Get(f.zonePrefix + "label").InBounds(mouse) {
			f.pathInput.Blur()
			return f, f.labelInput.Focus()
		}
		if zone.Get(f.zonePrefix + "path").InBounds(mouse) {
			f.labelInput.Blur()
			return f, f.pathInput.Focus()
		}
		if zone.Get(f.zonePrefix + "private").InBounds(mouse) {
			f.private = !f.private
			return f, nil
		}
		return f, nil
	}

	var cmd1, cmd2 tea.Cmd
	f.labelInput, cmd1 = f.labelInput.Update(msg)
	f.pathInput, cmd2 = f.pathInput.Update(msg)
	return f, tea.Batch(cmd1, cmd2)
}

func (f AddFolderForm) View(owner string) string {
	checkbox := "[ ]"
	if f.private {
		checkbox = "[x]"
	}

	var doc strings.Builder
	doc.WriteString("Adding a folder for the currently selected user: ")
	doc.WriteString(lipgloss.NewStyle().Bold(true).Render(owner))
	doc.WriteString("\n\nLabel\n")
	doc.WriteString(zone.Mark(f.zonePrefix+"label", f.labelInput.View()))
	doc.WriteString("\n\nPath (on the server hosting Syncthing)\n")
	doc.WriteString(zone.Mark(f.zonePrefix+"path", f.pathInput.View()))
	doc.WriteString("\n\n")
	doc.WriteString(zone.Mark(f.zonePrefix+"private", checkbox+" Private folder (only the owner can discover it)"))
	doc.WriteString("\n\n")
	doc.WriteString(zone.Mark(f.SubmitMark(), styles.PositiveBtn.Render("Add Folder")))
	doc.WriteString("\n\n")
	doc.WriteString(styles.Muted.Render("This adds the folder to the server and then syncs it to the user."))
	return doc.String()
}

// ----------------------------- settings --------------------------------

type SettingsForm struct {
	zonePrefix string
	urlInput   textinput.Model
	keyInput   textinput.Model
	userNames  []string
	userInputs []textinput.Model
}

func newSettingsForm(s settings.Settings) SettingsForm {
	urlInput := textinput.New()
	urlInput.SetValue(s.APIURL)
	urlInput.CharLimit = 200
	urlInput.Width = 50

	keyInput := textinput.New()
	keyInput.SetValue(s.APIKey)
	keyInput.CharLimit = 100
	keyInput.Width = 50
	keyInput.EchoMode = textinput.EchoPassword

	names := make([]string, 0, len(s.Users))
	inputs := make([]textinput.Model, 0, len(s.Users))
	for _, u := range s.Users {
		input := textinput.New()
		input.SetValue(u.DeviceID)
		input.CharLimit = 63
		input.Width = 66
		names = append(names, u.Name)
		inputs = append(inputs, input)
	}

	return SettingsForm{
		zonePrefix: zone.NewPrefix(),
		urlInput:   urlInput,
		keyInput:   keyInput,
		userNames:  names,
		userInputs: inputs,
	}
}

func (f SettingsForm) SubmitMark() string { return f.zonePrefix + "submit" }

// Apply folds the form values into a copy of the given settings. Peer API
// details stay whatever the file says; they have no form fields.
func (f SettingsForm) Apply(s settings.Settings) settings.Settings {
	s.APIURL = strings.TrimSpace(f.urlInput.Value())
	s.APIKey = strings.TrimSpace(f.keyInput.Value())
	for i, name := range f.userNames {
		for j := range s.Users {
			if s.Users[j].Name == name {
				s.Users[j].DeviceID = strings.TrimSpace(f.userInputs[i].Value())
			}
		}
	}
	return s
}

func (f SettingsForm) Update(msg tea.Msg) (SettingsForm, tea.Cmd) {
	if mouse, ok := msg.(tea.MouseMsg); ok {
		if mouse.Action != tea.MouseActionRelease || mouse.Button != tea.MouseButtonLeft {
			return f, nil
		}
		if zone.Get(f.zonePrefix + "url").InBounds(mouse) {
			f.blurAll()
			return f, f.urlInput.Focus()
		}
		if zone.Get(f.zonePrefix + "key").InBounds(mouse) {
			f.blurAll()
			return f, f.keyInput.Focus()
		}
		for i := range f.userInputs {
			if zone.Get(f.zonePrefix + "user/" + f.userNames[i]).InBounds(mouse) {
				f.blurAll()
				return f, f.userInputs[i].Focus()
			}
		}
		return f, nil
	}

	cmds := make([]tea.Cmd, 0, len(f.userInputs)+2)
	var cmd tea.Cmd
	f.urlInput, cmd = f.urlInput.Update(msg)
	cmds = append(cmds, cmd)
	f.keyInput, cmd = f.keyInput.Update(msg)
	cmds = append(cmds, cmd)
	for i := range f.userInputs {
		f.userInputs[i], cmd = f.userInputs[i].Update(msg)
		cmds = append(cmds, cmd)
	}
	return f, tea.Batch(cmds...)
}

func (f *SettingsForm) blurAll() {
	f.urlInput.Blur()
	f.keyInput.Blur()
	for i := range f.userInputs {
		f.userInputs[i].Blur()
	}
}

func (f SettingsForm) View() string {
	var doc strings.Builder
	doc.WriteString("Syncthing API URL\n")
	doc.WriteString(zone.Mark(f.zonePrefix+"url", f.urlInput.View()))
	doc.WriteString("\n\nAPI Key\n")
	doc.WriteString(zone.Mark(f.zonePrefix+"key", f.keyInput.View()))
	doc.WriteString("\n")
	for i, name := range f.userNames {
		doc.WriteString("\n" + name + "'s Device ID\n")
		doc.WriteString(zone.Mark(f.zonePrefix+"user/"+name, f.userInputs[i].View()))
		doc.WriteString("\n")
	}
	doc.WriteString("\n")
	doc.WriteString(zone.Mark(f.SubmitMark(), styles.PositiveBtn.Render("Save Settings & Test Connection")))
	return doc.String()
}
