package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"festival-map-cli/config"
	"festival-map-cli/mapview"
	"festival-map-cli/model"
	"festival-map-cli/service"
	"festival-map-cli/store"
)

type appState int

const (
	stateLoadingCatalog appState = iota
	stateBrowseMap
	stateMarkerPopup
	stateSelectStartDate
	stateSelectEndDate
	stateDetailOverlay
	stateError
)

// Fallback center when the snapshot has no located venues: Edinburgh.
const (
	fallbackCenterLat = 55.9533
	fallbackCenterLon = -3.1883
)

const maxDatePickerDays = 92

type appModel struct {
	client *service.Client
	cfg    config.Config

	state     appState
	lastState appState
	err       error

	width  int
	height int

	venues        map[string]model.Venue
	eventsByVenue map[string][]model.EventOccurrence
	venueReport   mapview.BuildReport
	eventReport   mapview.BuildReport

	dataStart time.Time
	dataEnd   time.Time

	dateRange mapview.DateRange
	tracker   *mapview.Tracker
	policy    mapview.ProximityPolicy

	markers  []mapview.Marker
	selected int

	occurrenceList list.Model
	startDateList  list.Model
	endDateList    list.Model

	detailSlot    mapview.DetailSlot
	detailPending bool
	detailErr     error
	detailEvent   string

	spinner spinner.Model
}

type errMsg struct {
	err            error
	returnState    appState
	returnStateSet bool
}

type catalogMsg struct {
	catalog model.Catalog
	err     error
}

type detailMsg struct {
	gen    uint64
	detail model.EventDetail
	err    error
}

func New(cfg config.Config) tea.Model {
	client := service.NewClient(nil, service.Config{
		CatalogURL:    cfg.CatalogURL,
		DetailBaseURL: cfg.DetailBaseURL,
		MaxAttempts:   cfg.FetchAttempts,
	})
	m := appModel{
		client:  client,
		cfg:     cfg,
		state:   stateLoadingCatalog,
		tracker: mapview.NewTracker(mapview.Viewport{CenterLat: fallbackCenterLat, CenterLon: fallbackCenterLon, Zoom: defaultZoom}),
		policy:  mapview.AlwaysVisible,
	}
	if cfg.ProximityGate {
		m.policy = mapview.NearCenter
	}

	m.occurrenceList = newList("Events")
	m.startDateList = newList("From Date")
	m.endDateList = newList("To Date")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp

	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.fetchCatalogCmd(), m.spinner.Tick)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case tea.KeyMsg:
		if m.handleFilterInput(msg) {
			return m, nil
		}
		var handled bool
		m, cmd, handled := m.handleKey(msg)
		if handled {
			return m, cmd
		}
		// fallthrough to component update

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.isLoadingState() {
			return m, cmd
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		if msg.returnStateSet {
			m.lastState = msg.returnState
		} else {
			m.lastState = recoverStateFrom(m.state)
		}
		m.state = stateError
		return m, nil

	case catalogMsg:
		if msg.err != nil {
			// Degrades to an empty marker set once dismissed.
			m.venues = map[string]model.Venue{}
			m.eventsByVenue = map[string][]model.EventOccurrence{}
			m.markers = nil
			return m, errWithOptionsCmd(fmt.Errorf("load festival data: %w", msg.err), stateBrowseMap)
		}
		m.ingestCatalog(msg.catalog)
		m.state = stateBrowseMap
		return m, nil

	case detailMsg:
		m.detailPending = false
		if msg.err != nil {
			m.detailErr = msg.err
			return m, nil
		}
		m.detailErr = nil
		m.detailSlot.Complete(msg.gen, msg.detail)
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case stateMarkerPopup:
		m.occurrenceList, cmd = m.occurrenceList.Update(msg)
	case stateSelectStartDate:
		m.startDateList, cmd = m.startDateList.Update(msg)
	case stateSelectEndDate:
		m.endDateList, cmd = m.endDateList.Update(msg)
	}
	return m, cmd
}

// ingestCatalog rebuilds both indexes wholesale from a snapshot and resets
// the filter inputs derived from it.
func (m *appModel) ingestCatalog(catalog model.Catalog) {
	m.venues, m.venueReport = mapview.BuildVenueIndex(catalog.Places)
	m.eventsByVenue, m.eventReport = mapview.BuildEventIndex(catalog.Events)

	m.dataStart, m.dataEnd = occurrenceSpan(m.eventsByVenue)
	m.dateRange = mapview.DateRange{
		Start: m.dataStart,
		End:   m.dataEnd.AddDate(0, 0, 1),
	}

	lat, lon := initialCenter(m.venues)
	m.tracker = mapview.NewTracker(mapview.Viewport{CenterLat: lat, CenterLon: lon, Zoom: defaultZoom})

	m.startDateList.SetItems(buildDateItems(m.dataStart, m.dataEnd))
	m.endDateList.SetItems(buildDateItems(m.dataStart, m.dataEnd.AddDate(0, 0, 1)))

	m.selected = 0
	m.recompute()
}

// recompute refreshes the visible marker set from the current values of the
// four pipeline inputs. Every input change funnels through here.
func (m *appModel) recompute() {
	m.markers = mapview.VisibleMarkers(m.venues, m.eventsByVenue, m.dateRange, m.tracker.Current(), m.policy)
	if m.selected >= len(m.markers) {
		m.selected = 0
	}
}

func (m appModel) View() string {
	header := m.headerView()
	switch m.state {
	case stateLoadingCatalog:
		return header + "\n\n" + m.loadingView()
	case stateBrowseMap:
		return header + "\n\n" + m.renderMap()
	case stateMarkerPopup:
		return header + "\n\n" + m.occurrenceList.View()
	case stateSelectStartDate:
		return header + "\n\n" + m.startDateList.View()
	case stateSelectEndDate:
		return header + "\n\n" + m.endDateList.View()
	case stateDetailOverlay:
		return header + "\n\n" + m.renderDetailOverlay()
	case stateError:
		return header + "\n\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render(m.err.Error()) + "\n\n" + hint("Press esc to go back or ctrl+c to quit.")
	default:
		return header
	}
}

func (m appModel) headerView() string {
	title := lipgloss.NewStyle().Bold(true).Render("Festival Map")
	sub := []string{}
	if !m.dateRange.Start.IsZero() {
		sub = append(sub, fmt.Sprintf("Dates: %s → %s", m.dateRange.Start.Format(time.DateOnly), m.dateRange.End.Format(time.DateOnly)))
	}
	if m.state != stateLoadingCatalog && m.tracker != nil {
		vp := m.tracker.Current()
		sub = append(sub, fmt.Sprintf("Center: %.4f, %.4f z%d", vp.CenterLat, vp.CenterLon, vp.Zoom))
	}
	if len(m.markers) > 0 {
		sub = append(sub, fmt.Sprintf("%d venues shown", len(m.markers)))
	}
	if skipped := m.venueReport.Malformed + m.eventReport.Malformed; skipped > 0 {
		sub = append(sub, fmt.Sprintf("%d records skipped", skipped))
	}
	meta := strings.Join(sub, " • ")
	if meta != "" {
		meta = "\n" + lipgloss.NewStyle().Faint(true).Render(meta)
	}

	hints := "ctrl+c quit"
	switch m.state {
	case stateBrowseMap:
		hints = "arrows pan • +/- zoom • tab next venue • enter events • ctrl+d from date • ctrl+e to date • q quit"
	case stateMarkerPopup:
		hints = "enter transit detail • type to filter • esc back"
	case stateSelectStartDate, stateSelectEndDate:
		hints = "enter select date • esc back"
	case stateDetailOverlay:
		hints = "esc back"
	}

	filterLine := ""
	if listPtr := m.activeList(); listPtr != nil {
		if filter := listPtr.FilterValue(); filter != "" {
			filterLine = "\n" + hint(fmt.Sprintf("Filter: %s", filter))
		}
	}
	return title + meta + filterLine + "\n" + hint(hints)
}

func (m appModel) handleKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit, true
	case "esc":
		if listPtr := m.activeList(); listPtr != nil {
			if listPtr.SettingFilter() || listPtr.IsFiltered() {
				listPtr.ResetFilter()
				return m, nil, true
			}
		}
		next := m.goBack()
		return next, nil, true
	case "ctrl+d":
		if m.state == stateBrowseMap || m.state == stateMarkerPopup {
			m.state = stateSelectStartDate
			return m, nil, true
		}
	case "ctrl+e":
		if m.state == stateBrowseMap || m.state == stateMarkerPopup {
			m.state = stateSelectEndDate
			return m, nil, true
		}
	}

	if m.state == stateBrowseMap {
		if next, handled := m.handleMapKey(msg); handled {
			return next, nil, true
		}
	}

	if msg.Type == tea.KeyEnter {
		switch m.state {
		case stateBrowseMap:
			if len(m.markers) == 0 {
				return m, nil, true
			}
			marker := m.markers[m.selected]
			m.occurrenceList.Title = fmt.Sprintf("Events • %s", marker.Venue.Name)
			m.occurrenceList.SetItems(buildOccurrenceItems(marker.Occurrences))
			m.state = stateMarkerPopup
			return m, nil, true
		case stateMarkerPopup:
			item, ok := m.occurrenceList.SelectedItem().(occurrenceItem)
			if !ok {
				return m, nil, true
			}
			gen := m.detailSlot.Begin()
			m.detailSlot.Clear()
			m.detailPending = true
			m.detailErr = nil
			m.detailEvent = item.occurrence.Name
			m.state = stateDetailOverlay
			return m, tea.Batch(m.fetchDetailCmd(gen, item.occurrence.EventId), m.spinner.Tick), true
		case stateSelectStartDate:
			item, ok := m.startDateList.SelectedItem().(dateItem)
			if !ok {
				return m, nil, true
			}
			m.dateRange.Start = item.date
			m.recompute()
			m.state = stateBrowseMap
			return m, nil, true
		case stateSelectEndDate:
			item, ok := m.endDateList.SelectedItem().(dateItem)
			if !ok {
				return m, nil, true
			}
			m.dateRange.End = item.date
			m.recompute()
			m.state = stateBrowseMap
			return m, nil, true
		}
	}
	return m, nil, false
}

// handleMapKey turns pan/zoom keys into viewport-change events. The tracker
// is the single owner of the viewport cell; the keys only emit events.
func (m appModel) handleMapKey(msg tea.KeyMsg) (appModel, bool) {
	vp := m.tracker.Current()
	latStep := latSpanForZoom(vp.Zoom) / 5
	lonStep := latStep * 2

	switch msg.String() {
	case "up":
		m.observeViewport(mapview.MoveEnd, vp.CenterLat+latStep, vp.CenterLon, vp.Zoom)
	case "down":
		m.observeViewport(mapview.MoveEnd, vp.CenterLat-latStep, vp.CenterLon, vp.Zoom)
	case "left":
		m.observeViewport(mapview.MoveEnd, vp.CenterLat, vp.CenterLon-lonStep, vp.Zoom)
	case "right":
		m.observeViewport(mapview.MoveEnd, vp.CenterLat, vp.CenterLon+lonStep, vp.Zoom)
	case "+", "=":
		m.observeViewport(mapview.ZoomEnd, vp.CenterLat, vp.CenterLon, clampZoom(vp.Zoom+1))
	case "-", "_":
		m.observeViewport(mapview.ZoomEnd, vp.CenterLat, vp.CenterLon, clampZoom(vp.Zoom-1))
	case "c":
		lat, lon := initialCenter(m.venues)
		m.observeViewport(mapview.MoveEnd, lat, lon, vp.Zoom)
	case "tab":
		if len(m.markers) > 0 {
			m.selected = (m.selected + 1) % len(m.markers)
		}
	case "shift+tab":
		if len(m.markers) > 0 {
			m.selected = (m.selected - 1 + len(m.markers)) % len(m.markers)
		}
	default:
		return m, false
	}
	return m, true
}

func (m *appModel) observeViewport(kind mapview.ViewportEventType, lat, lon float64, zoom int) {
	m.tracker.Observe(mapview.ViewportEvent{
		Type:      kind,
		CenterLat: lat,
		CenterLon: lon,
		Zoom:      zoom,
	})
	m.recompute()
}

func (m appModel) goBack() appModel {
	switch m.state {
	case stateMarkerPopup, stateSelectStartDate, stateSelectEndDate:
		m.state = stateBrowseMap
	case stateDetailOverlay:
		m.state = stateMarkerPopup
	case stateError:
		m.state = m.lastState
	}
	return m
}

func (m *appModel) handleFilterInput(msg tea.KeyMsg) bool {
	listPtr := m.activeList()
	if listPtr == nil {
		return false
	}
	if !listPtr.FilteringEnabled() {
		return false
	}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return false
		}
		m.appendFilter(listPtr, string(msg.Runes))
		return true
	case tea.KeySpace:
		m.appendFilter(listPtr, " ")
		return true
	case tea.KeyBackspace, tea.KeyDelete:
		if listPtr.FilterValue() == "" {
			return false
		}
		m.popFilter(listPtr)
		return true
	default:
		return false
	}
}

func (m *appModel) appendFilter(listPtr *list.Model, value string) {
	if value == "" {
		return
	}
	current := listPtr.FilterValue()
	listPtr.SetFilterText(current + value)
}

func (m *appModel) popFilter(listPtr *list.Model) {
	value := listPtr.FilterValue()
	if value == "" {
		return
	}
	value = trimLastRune(value)
	if value == "" {
		listPtr.ResetFilter()
		return
	}
	listPtr.SetFilterText(value)
}

func trimLastRune(value string) string {
	runes := []rune(value)
	if len(runes) <= 1 {
		return ""
	}
	return string(runes[:len(runes)-1])
}

func (m *appModel) activeList() *list.Model {
	switch m.state {
	case stateMarkerPopup:
		return &m.occurrenceList
	case stateSelectStartDate:
		return &m.startDateList
	case stateSelectEndDate:
		return &m.endDateList
	default:
		return nil
	}
}

func (m appModel) isLoadingState() bool {
	if m.state == stateLoadingCatalog {
		return true
	}
	return m.state == stateDetailOverlay && m.detailPending
}

func (m appModel) loadingView() string {
	return fmt.Sprintf("%s Loading festival data\n\n%s", m.spinner.View(), hint("Fetching data..."))
}

func (m *appModel) resizeLists() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := m.height - 6
	if h < 6 {
		h = 6
	}
	m.occurrenceList.SetSize(m.width, h)
	m.startDateList.SetSize(m.width, h)
	m.endDateList.SetSize(m.width, h)
}

func newList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = title
	l.Filter = caseInsensitiveFilter
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	return l
}

func hint(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

func errWithOptionsCmd(err error, returnState appState) tea.Cmd {
	return func() tea.Msg {
		return errMsg{
			err:            err,
			returnState:    returnState,
			returnStateSet: true,
		}
	}
}

func recoverStateFrom(state appState) appState {
	switch state {
	case stateLoadingCatalog:
		return stateBrowseMap
	case stateDetailOverlay:
		return stateMarkerPopup
	case stateError:
		return stateBrowseMap
	default:
		return state
	}
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func caseInsensitiveFilter(term string, targets []string) []list.Rank {
	term = strings.ToLower(term)
	lower := make([]string, len(targets))
	for i, t := range targets {
		lower[i] = strings.ToLower(t)
	}
	return list.DefaultFilter(term, lower)
}

func (m appModel) fetchCatalogCmd() tea.Cmd {
	return func() tea.Msg {
		if !m.cfg.NoCache {
			if cached, fresh, err := store.LoadCatalogCache(m.cfg.CatalogURL); err == nil && fresh && len(cached.Places) > 0 {
				return catalogMsg{catalog: cached}
			}
		}
		ctx := context.Background()
		catalog, err := m.client.GetCatalog(ctx)
		if err == nil && !m.cfg.NoCache && len(catalog.Places) > 0 {
			_ = store.SaveCatalogCache(m.cfg.CatalogURL, catalog)
		}
		return catalogMsg{catalog: catalog, err: err}
	}
}

func (m appModel) fetchDetailCmd(gen uint64, eventID string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		detail, err := m.client.GetEventDetail(ctx, eventID)
		return detailMsg{gen: gen, detail: detail, err: err}
	}
}

func (m appModel) renderDetailOverlay() string {
	title := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Transit detail • %s", m.detailEvent))

	if m.detailErr != nil {
		return title + "\n\n" + hint("No detail available: "+m.detailErr.Error())
	}

	detail, ok := m.detailSlot.Current()
	if !ok {
		if m.detailPending {
			return title + "\n\n" + fmt.Sprintf("%s Fetching nearby stops...", m.spinner.View())
		}
		return title + "\n\n" + hint("No secondary data for this event.")
	}

	lines := []string{title, ""}
	venue := detail.VenueName
	if detail.VenueTown != "" {
		venue = venue + ", " + detail.VenueTown
	}
	if venue != "" {
		lines = append(lines, "Venue: "+venue)
	}
	if detail.ExpectedAttendance > 0 {
		lines = append(lines, fmt.Sprintf("Expected attendance: %d", detail.ExpectedAttendance))
	}

	if len(detail.NearbyStops) == 0 {
		lines = append(lines, "", hint("No stops within walking distance."))
		return strings.Join(lines, "\n")
	}

	stops := append([]model.NearbyStop{}, detail.NearbyStops...)
	sort.SliceStable(stops, func(i, j int) bool {
		return stops[i].ExpectedPassengers > stops[j].ExpectedPassengers
	})

	lines = append(lines, "", lipgloss.NewStyle().Bold(true).Render("Nearby stops"))
	for _, stop := range stops {
		name := stop.StopName
		if stop.StopLocality != "" {
			name = fmt.Sprintf("%s (%s)", name, stop.StopLocality)
		}
		row := fmt.Sprintf("%-34s %4d m  %5d pax  %5.1f%%", name, stop.DistanceMeters, stop.ExpectedPassengers, stop.PercentageOfTotal)
		if stop.BusServices != "" {
			row += "  • " + stop.BusServices
		}
		lines = append(lines, row)
	}
	if detail.TotalExpected > 0 {
		lines = append(lines, "", fmt.Sprintf("Total expected passengers: %d across %d stops", detail.TotalExpected, len(stops)))
	}
	return strings.Join(lines, "\n")
}

type dateItem struct {
	date time.Time
}

func (d dateItem) Title() string {
	if isSameDay(d.date, time.Now()) {
		return fmt.Sprintf("%s • %s (Today)", d.date.Format("Mon"), d.date.Format("02/01"))
	}
	return fmt.Sprintf("%s • %s", d.date.Format("Mon"), d.date.Format("02/01"))
}

func (d dateItem) Description() string {
	return d.date.Format(time.DateOnly)
}

func (d dateItem) FilterValue() string {
	return d.Title()
}

func buildDateItems(start, end time.Time) []list.Item {
	first := truncateDate(start)
	last := truncateDate(end)
	var items []list.Item
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		items = append(items, dateItem{date: day})
		if len(items) >= maxDatePickerDays {
			break
		}
	}
	return items
}

func isSameDay(a time.Time, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

type occurrenceItem struct {
	occurrence model.EventOccurrence
}

func (o occurrenceItem) Title() string {
	return fmt.Sprintf("%s • %s", o.occurrence.Start.Format("Mon 02 Jan 15:04"), o.occurrence.Name)
}

func (o occurrenceItem) Description() string {
	parts := []string{}
	if o.occurrence.Status != "" {
		parts = append(parts, o.occurrence.Status)
	}
	if !o.occurrence.End.IsZero() {
		parts = append(parts, "until "+o.occurrence.End.Format("15:04"))
	}
	return strings.Join(parts, " • ")
}

func (o occurrenceItem) FilterValue() string {
	return strings.ToLower(strings.Join([]string{o.occurrence.Name, o.occurrence.Status}, " "))
}

func buildOccurrenceItems(occurrences []model.EventOccurrence) []list.Item {
	items := make([]list.Item, 0, len(occurrences))
	for _, occ := range occurrences {
		items = append(items, occurrenceItem{occurrence: occ})
	}
	return items
}

// occurrenceSpan returns the first and last occurrence days in the snapshot,
// used to seed the default date range and the pickers.
func occurrenceSpan(eventsByVenue map[string][]model.EventOccurrence) (time.Time, time.Time) {
	var first, last time.Time
	for _, occurrences := range eventsByVenue {
		for _, occ := range occurrences {
			if first.IsZero() || occ.Start.Before(first) {
				first = occ.Start
			}
			if last.IsZero() || occ.Start.After(last) {
				last = occ.Start
			}
		}
	}
	if first.IsZero() {
		today := truncateDate(time.Now())
		return today, today
	}
	return truncateDate(first), truncateDate(last)
}

// initialCenter is the median of venue coordinates, matching how the map
// widget picks its starting view.
func initialCenter(venues map[string]model.Venue) (float64, float64) {
	if len(venues) == 0 {
		return fallbackCenterLat, fallbackCenterLon
	}
	lats := make([]float64, 0, len(venues))
	lons := make([]float64, 0, len(venues))
	for _, venue := range venues {
		lats = append(lats, venue.Lat)
		lons = append(lons, venue.Lon)
	}
	sort.Float64s(lats)
	sort.Float64s(lons)
	return lats[len(lats)/2], lons[len(lons)/2]
}
