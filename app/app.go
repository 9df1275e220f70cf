package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/davecgh/go-spew/spew"
	"github.com/dustin/go-humanize"
	"github.com/elliotchance/orderedmap/v3"
	zone "github.com/lrstanley/bubblezone"

	"github.com/pdrolopes/syncmanager_TUI/engine"
	"github.com/pdrolopes/syncmanager_TUI/settings"
	"github.com/pdrolopes/syncmanager_TUI/styles"
)

// ------------------ constants -----------------------
const (
	REFRESH_MARK       = "refresh"
	SYNC_SELECTED_MARK = "sync-selected"
	LOG_FILE           = "sync-manager.log"
)

var tabNames = []string{"Overview", "Add Device", "Add Folder", "Settings"}

const (
	TAB_OVERVIEW = iota
	TAB_ADD_DEVICE
	TAB_ADD_FOLDER
	TAB_SETTINGS
)

func tabMark(i int) string        { return fmt.Sprintf("tab/%d", i) }
func userMark(name string) string { return "user/" + name }
func unsyncMark(id string) string { return "folder/" + id + "/unsync" }
func toggleMark(id string) string { return "folder/" + id + "/toggle" }

var quitKeys = key.NewBinding(
	key.WithKeys("q", "esc"),
	key.WithHelp("", "press q to quit"),
)

type model struct {
	dump   io.Writer
	logger *log.Logger
	err    error
	width  int
	height int

	settingsPath string
	settings     settings.Settings
	engine       *engine.Engine

	activeTab         int
	activeUser        int
	loading           bool
	ongoingUserAction bool
	notice            string
	noticeIsError     bool

	view engine.RefreshView

	// discoverable folders ticked for the next Sync Selected, in click order
	selection *orderedmap.OrderedMap[string, string]

	confirm       ConfirmModel
	addDeviceForm AddDeviceForm
	addFolderForm AddFolderForm
	settingsForm  SettingsForm
}

func NewModel() model {
	var dump *os.File
	if _, ok := os.LookupEnv("DEBUG"); ok {
		var err error
		dump, err = os.OpenFile("messages.log", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			os.Exit(1)
		}
	}

	loaded, created, err := settings.Load(settings.DefaultPath())
	logger := newLogger()

	m := model{
		dump:          dump,
		logger:        logger,
		err:           err,
		settingsPath:  settings.DefaultPath(),
		settings:      loaded,
		selection:     orderedmap.NewOrderedMap[string, string](),
		confirm:       newConfirmModel(),
		addDeviceForm: newAddDeviceForm(),
		addFolderForm: newAddFolderForm(),
		settingsForm:  newSettingsForm(loaded),
	}

	if err != nil {
		return m
	}

	if created {
		m.notice = fmt.Sprintf("Created %s. Fill in the API key in the Settings tab.", m.settingsPath)
	}

	m.engine, m.err = newEngine(loaded, logger)
	return m
}

func newLogger() *log.Logger {
	path := filepath.Join(settings.DefaultDir, LOG_FILE)
	_ = os.MkdirAll(settings.DefaultDir, 0o755)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return log.New(io.Discard)
	}
	return log.NewWithOptions(file, log.Options{
		ReportTimestamp: true,
		Prefix:          "sync-manager",
	})
}

func (m model) Init() tea.Cmd {
	if m.engine == nil || m.settings.APIKey == "" {
		return tea.SetWindowTitle("sync-manager")
	}
	user, _ := m.currentUser()
	return tea.Sequence(
		tea.SetWindowTitle("sync-manager"),
		refreshCmd(m.engine, m.settings, user),
	)
}

func (m model) currentUser() (settings.User, bool) {
	if len(m.settings.Users) == 0 {
		return settings.User{}, false
	}
	if m.activeUser >= len(m.settings.Users) {
		return m.settings.Users[0], true
	}
	return m.settings.Users[m.activeUser], true
}

func (m model) refresh() (model, tea.Cmd) {
	if m.engine == nil {
		return m, nil
	}
	user, ok := m.currentUser()
	if !ok {
		return m, nil
	}
	m.loading = true
	return m, refreshCmd(m.engine, m.settings, user)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.dump != nil {
		spew.Fdump(m.dump, msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}

		if confirm, cmd, consumed := m.confirm.Update(msg); consumed {
			m.confirm = confirm
			if cmd != nil {
				m.ongoingUserAction = true
			}
			return m, cmd
		}

		switch m.activeTab {
		case TAB_OVERVIEW:
			switch {
			case key.Matches(msg, quitKeys):
				return m, tea.Quit
			case msg.String() == "r":
				return m.refresh()
			}
			return m, nil
		case TAB_ADD_DEVICE:
			var cmd tea.Cmd
			m.addDeviceForm, cmd = m.addDeviceForm.Update(msg)
			return m, cmd
		case TAB_ADD_FOLDER:
			var cmd tea.Cmd
			m.addFolderForm, cmd = m.addFolderForm.Update(msg)
			return m, cmd
		case TAB_SETTINGS:
			var cmd tea.Cmd
			m.settingsForm, cmd = m.settingsForm.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.MouseMsg:
		if confirm, cmd, consumed := m.confirm.Update(msg); consumed {
			m.confirm = confirm
			if cmd != nil {
				m.ongoingUserAction = true
			}
			return m, cmd
		}

		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
			return m.handleLeftClick(msg)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case RefreshedMsg:
		m.loading = false
		if msg.err != nil {
			m.setNotice(fmt.Sprintf("Refresh failed: %v", msg.err), true)
			return m, nil
		}
		m.view = msg.view
		if m.view.ThisID != "" {
			m.engine.ThisID = m.view.ThisID
		}
		m.pruneSelection()
		return m, nil

	case SyncEndedMsg:
		m.ongoingUserAction = false
		m.setNotice(summarizeSync(msg), syncHasFailure(msg.results))
		for _, r := range msg.results {
			if r.Err == nil {
				m.selection.Delete(r.FolderID)
			}
		}
		return m.refresh()

	case UnsyncEndedMsg:
		m.ongoingUserAction = false
		if msg.err != nil {
			m.setNotice(fmt.Sprintf("Unsync %q for %s: %v", msg.label, msg.user, msg.err), true)
		} else {
			m.setNotice(fmt.Sprintf("Stopped syncing %q with %s.", msg.label, msg.user), false)
		}
		return m.refresh()

	case DeviceAddedMsg:
		m.ongoingUserAction = false
		if msg.err != nil {
			m.setNotice(fmt.Sprintf("Add device %q: %v", msg.name, msg.err), true)
			return m, nil
		}
		m.addDeviceForm.Reset()
		m.setNotice(fmt.Sprintf("Device %q added.", msg.name), false)
		m.activeTab = TAB_OVERVIEW
		return m.refresh()

	case FolderAddedMsg:
		m.ongoingUserAction = false
		if msg.err != nil {
			m.setNotice(fmt.Sprintf("Add folder %q: %v", msg.label, msg.err), true)
			return m, nil
		}
		m.addFolderForm.Reset()
		m.setNotice(fmt.Sprintf("Folder %q added and synced to %s.", msg.label, msg.user), false)
		m.activeTab = TAB_OVERVIEW
		return m.refresh()

	case FolderPathMissingMsg:
		m.ongoingUserAction = false
		user, ok := m.currentUser()
		if !ok {
			return m, nil
		}
		m.confirm.Show(
			"Path Not Found",
			fmt.Sprintf("%q does not exist on the server.\nCreate the directory and add the folder anyway?", msg.path),
			"Create & Add",
			addFolderCmd(m.engine, user, msg.label, msg.path, msg.private, true),
		)
		return m, nil

	case SettingsSavedMsg:
		m.ongoingUserAction = false
		if msg.err != nil {
			m.setNotice(fmt.Sprintf("Save settings: %v", msg.err), true)
			return m, nil
		}
		m.settings = msg.settings
		m.engine = msg.engine
		m.settingsForm = newSettingsForm(msg.settings)
		if msg.settings.ThisDeviceID != "" {
			m.setNotice(fmt.Sprintf("Settings saved. Connected as %s.", shortID(msg.settings.ThisDeviceID)), false)
		} else {
			m.setNotice("Settings saved. Could not reach the Syncthing API yet.", true)
		}
		return m.refresh()
	}

	return m, nil
}

func (m *model) setNotice(text string, isError bool) {
	m.notice = text
	m.noticeIsError = isError
	if isError {
		m.logger.Error(text)
	} else {
		m.logger.Info(text)
	}
}

// pruneSelection drops ticked folders that are no longer discoverable for
// the active user, so a stale refresh can't sync something invisible.
func (m *model) pruneSelection() {
	visible := make(map[string]struct{}, len(m.view.Discoverable))
	for _, f := range m.view.Discoverable {
		visible[f.ID] = struct{}{}
	}
	var stale []string
	for id := range m.selection.Keys() {
		if _, ok := visible[id]; !ok {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		m.selection.Delete(id)
	}
}

func (m model) handleLeftClick(msg tea.MouseMsg) (model, tea.Cmd) {
	for i := range tabNames {
		if zone.Get(tabMark(i)).InBounds(msg) {
			m.activeTab = i
			return m, nil
		}
	}

	for i, user := range m.settings.Users {
		if zone.Get(userMark(user.Name)).InBounds(msg) {
			if i == m.activeUser {
				return m, nil
			}
			m.activeUser = i
			m.selection = orderedmap.NewOrderedMap[string, string]()
			return m.refresh()
		}
	}

	if zone.Get(REFRESH_MARK).InBounds(msg) {
		return m.refresh()
	}

	switch m.activeTab {
	case TAB_OVERVIEW:
		return m.handleOverviewClick(msg)
	case TAB_ADD_DEVICE:
		if zone.Get(m.addDeviceForm.SubmitMark()).InBounds(msg) {
			return m.submitAddDevice()
		}
		var cmd tea.Cmd
		m.addDeviceForm, cmd = m.addDeviceForm.Update(msg)
		return m, cmd
	case TAB_ADD_FOLDER:
		if zone.Get(m.addFolderForm.SubmitMark()).InBounds(msg) {
			return m.submitAddFolder()
		}
		var cmd tea.Cmd
		m.addFolderForm, cmd = m.addFolderForm.Update(msg)
		return m, cmd
	case TAB_SETTINGS:
		if zone.Get(m.settingsForm.SubmitMark()).InBounds(msg) {
			return m.submitSettings()
		}
		var cmd tea.Cmd
		m.settingsForm, cmd = m.settingsForm.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) handleOverviewClick(msg tea.MouseMsg) (model, tea.Cmd) {
	if m.ongoingUserAction {
		return m, nil
	}
	user, hasUser := m.currentUser()

	for _, folder := range m.view.Discoverable {
		if zone.Get(toggleMark(folder.ID)).InBounds(msg) {
			if m.selection.Has(folder.ID) {
				m.selection.Delete(folder.ID)
			} else {
				m.selection.Set(folder.ID, folder.Label)
			}
			return m, nil
		}
	}

	for _, folder := range m.view.Mine {
		if zone.Get(unsyncMark(folder.ID)).InBounds(msg) {
			if !hasUser {
				return m, nil
			}
			m.confirm.Show(
				"Stop Syncing Folder",
				fmt.Sprintf("%s's device will no longer receive:\n  %s\nThe folder and its files stay on the server.", user.Name, folder.DisplayText()),
				"Unsync",
				unsyncCmd(m.engine, user, folder.ID, folder.Label),
			)
			return m, nil
		}
	}

	if zone.Get(SYNC_SELECTED_MARK).InBounds(msg) {
		if !hasUser {
			return m, nil
		}
		if m.selection.Len() == 0 {
			m.setNotice("Tick at least one discoverable folder first.", true)
			return m, nil
		}

		ids := make([]string, 0, m.selection.Len())
		labels := make(map[string]string, m.selection.Len())
		lines := make([]string, 0, m.selection.Len())
		for id, label := range m.selection.AllFromFront() {
			ids = append(ids, id)
			labels[id] = label
			lines = append(lines, "  • "+label)
		}

		m.confirm.Show(
			"Sync Folders",
			fmt.Sprintf("Share with %s:\n%s", user.Name, strings.Join(lines, "\n")),
			"Sync",
			syncSelectedCmd(m.engine, user, ids, labels),
		)
		return m, nil
	}

	return m, nil
}

func (m model) submitAddDevice() (model, tea.Cmd) {
	if m.ongoingUserAction || m.engine == nil {
		return m, nil
	}
	deviceID, name := m.addDeviceForm.Values()
	if deviceID == "" || name == "" {
		m.setNotice("Device ID and name are both required.", true)
		return m, nil
	}
	m.ongoingUserAction = true
	return m, addDeviceCmd(m.engine, deviceID, name)
}

func (m model) submitAddFolder() (model, tea.Cmd) {
	if m.ongoingUserAction || m.engine == nil {
		return m, nil
	}
	user, ok := m.currentUser()
	if !ok {
		m.setNotice("No user selected to own the folder.", true)
		return m, nil
	}
	label, path, private := m.addFolderForm.Values()
	if label == "" || path == "" {
		m.setNotice("Label and path are both required.", true)
		return m, nil
	}
	m.ongoingUserAction = true
	return m, addFolderCmd(m.engine, user, label, path, private, false)
}

func (m model) submitSettings() (model, tea.Cmd) {
	if m.ongoingUserAction {
		return m, nil
	}
	m.ongoingUserAction = true
	return m, saveSettingsCmd(m.settingsPath, m.settingsForm.Apply(m.settings), m.logger)
}

// ------------------ VIEW --------------------------

func (m model) View() string {
	if m.err != nil {
		return m.err.Error()
	}

	var content string
	switch m.activeTab {
	case TAB_OVERVIEW:
		content = m.viewOverview()
	case TAB_ADD_DEVICE:
		content = m.addDeviceForm.View()
	case TAB_ADD_FOLDER:
		owner := "(no user)"
		if user, ok := m.currentUser(); ok {
			owner = user.Name
		}
		content = m.addFolderForm.View(owner)
	case TAB_SETTINGS:
		content = m.settingsForm.View()
	}

	main := lipgloss.NewStyle().MaxHeight(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.viewHeader(),
			m.viewTabs(),
			"",
			lipgloss.NewStyle().Padding(0, 1).Render(content),
			"",
			m.viewNotice(),
		))

	if m.confirm.Visible() {
		return zone.Scan(lipgloss.Place(
			max(m.width, lipgloss.Width(main)),
			max(m.height, lipgloss.Height(main)),
			lipgloss.Center, lipgloss.Center,
			m.confirm.View(),
		))
	}

	return zone.Scan(main)
}

func (m model) viewHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(styles.AccentColor).Render("Folder Sync Manager")

	uptime := ""
	if m.view.Uptime > 0 {
		uptime = styles.Muted.Render(" server up " + humanizeDuration(m.view.Uptime))
	}

	refreshLabel := "Refresh"
	if m.loading {
		refreshLabel = "Loading..."
	}
	refresh := zone.Mark(REFRESH_MARK, styles.BtnStyleV2.Render(refreshLabel))

	users := make([]string, 0, len(m.settings.Users))
	for i, user := range m.settings.Users {
		radio := "( )"
		style := styles.Muted
		if i == m.activeUser {
			radio = "(•)"
			style = lipgloss.NewStyle().Bold(true).Foreground(styles.AccentColor)
		}
		users = append(users, zone.Mark(userMark(user.Name), style.Render(radio+" "+user.Name)))
	}

	return lipgloss.JoinHorizontal(lipgloss.Center,
		title, uptime, "   ",
		strings.Join(users, "  "), "   ",
		refresh,
	)
}

func (m model) viewTabs() string {
	tabs := make([]string, 0, len(tabNames))
	for i, name := range tabNames {
		style := styles.Tab
		if i == m.activeTab {
			style = styles.ActiveTab
		}
		tabs = append(tabs, zone.Mark(tabMark(i), style.Render(name)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m model) viewNotice() string {
	if m.notice == "" {
		return ""
	}
	style := styles.Muted
	if m.noticeIsError {
		style = lipgloss.NewStyle().Foreground(styles.ErrorColor)
	}
	return style.Render(m.notice)
}

func (m model) viewOverview() string {
	if m.settings.APIKey == "" {
		return "Missing API key. Open the Settings tab and fill it in."
	}

	sections := []string{
		m.viewDevices(),
		"",
		m.viewMine(),
		"",
		m.viewDiscoverable(),
	}

	if len(m.view.Drift) > 0 {
		sections = append(sections, "", m.viewDrift())
	}

	if missing := m.settings.MissingDeviceIDs(); len(missing) > 0 {
		sections = append(sections, "",
			styles.Muted.Render(fmt.Sprintf(
				"No device id set for: %s. Their folders can't sync until one is added.",
				strings.Join(missing, ", "))))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m model) viewDevices() string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderColumn(false).
		Headers("DEVICE", "USER", "STATUS", "DOWN", "UP").
		StyleFunc(func(row, col int) lipgloss.Style {
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, d := range m.view.Devices {
		owner := d.Owner
		if d.ThisDevice {
			owner = "(this server)"
		}
		status := lipgloss.NewStyle().Foreground(styles.MutedColor).Render("○ disconnected")
		if d.Connected {
			status = lipgloss.NewStyle().Foreground(styles.SuccessColor).Render("● connected")
		}
		t.Row(
			d.Name,
			owner,
			status,
			humanize.IBytes(uint64(d.InBytesTotal)),
			humanize.IBytes(uint64(d.OutBytesTotal)),
		)
	}

	return t.Render()
}

func (m model) viewMine() string {
	userName := ""
	if user, ok := m.currentUser(); ok {
		userName = user.Name
	}

	header := lipgloss.NewStyle().Bold(true).
		Render(fmt.Sprintf("%s's Folders (%d)", userName, len(m.view.Mine)))

	if len(m.view.Mine) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header,
			styles.Muted.Render("  nothing synced yet"))
	}

	lines := make([]string, 0, len(m.view.Mine)+1)
	lines = append(lines, header)
	for _, folder := range m.view.Mine {
		btn := zone.Mark(unsyncMark(folder.ID), styles.NegativeBtn.Render("Unsync"))
		lines = append(lines, "  "+renderFolder(folder)+" "+btn)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m model) viewDiscoverable() string {
	header := lipgloss.NewStyle().Bold(true).
		Render(fmt.Sprintf("Discoverable Folders (%d)", len(m.view.Discoverable)))

	if len(m.view.Discoverable) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header,
			styles.Muted.Render("  nothing shared by other users"))
	}

	lines := make([]string, 0, len(m.view.Discoverable)+2)
	lines = append(lines, header)
	for _, folder := range m.view.Discoverable {
		checkbox := "[ ]"
		if m.selection.Has(folder.ID) {
			checkbox = "[x]"
		}
		lines = append(lines, zone.Mark(toggleMark(folder.ID), "  "+checkbox+" "+renderFolder(folder)))
	}

	label := "Sync Selected"
	if n := m.selection.Len(); n > 0 {
		label = fmt.Sprintf("Sync Selected (%d)", n)
	}
	lines = append(lines, "", "  "+zone.Mark(SYNC_SELECTED_MARK, styles.PositiveBtn.Render(label)))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m model) viewDrift() string {
	warn := lipgloss.NewStyle().Foreground(styles.WarningColor)
	lines := make([]string, 0, len(m.view.Drift)+1)
	lines = append(lines, warn.Bold(true).Render("Drift detected"))
	for _, d := range m.view.Drift {
		lines = append(lines, warn.Render("  ⚠ "+d.Describe()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderFolder(f engine.FolderView) string {
	tag := ""
	if f.Private {
		tag = " " + styles.PrivateTag.Render("[PRIVATE]")
	}
	return fmt.Sprintf("%s%s %s", f.Label, tag,
		styles.Muted.Render(fmt.Sprintf("(%s) %s", f.ID, f.Path)))
}

func shortID(id string) string {
	if i := strings.Index(id, "-"); i > 0 {
		return id[:i]
	}
	return id
}

func summarizeSync(msg SyncEndedMsg) string {
	var ok, partial, failed int
	var firstErr error
	for _, r := range msg.results {
		switch {
		case r.Err == nil:
			ok++
		case engine.IsPartial(r.Err):
			partial++
		default:
			failed++
			if firstErr == nil {
				firstErr = r.Err
			}
		}
	}

	parts := []string{}
	if ok > 0 {
		parts = append(parts, fmt.Sprintf("%d synced to %s", ok, msg.user))
	}
	if partial > 0 {
		parts = append(parts, fmt.Sprintf("%d recorded on the server but not pushed to %s's device yet", partial, msg.user))
	}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed (%v)", failed, firstErr))
	}
	if len(parts) == 0 {
		return "Nothing to sync."
	}
	return strings.Join(parts, "; ") + "."
}

func syncHasFailure(results []engine.SyncResult) bool {
	for _, r := range results {
		if r.Err != nil && !engine.IsPartial(r.Err) {
			return true
		}
	}
	return false
}
