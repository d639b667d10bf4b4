package cli

import (
	"fmt"
	"strings"

	"github.com/brianndofor/mrq/internal/render"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type pickMode int

const (
	pickModeList pickMode = iota
	pickModeAction
)

type pickResult struct {
	Item   QueueItem
	Action string
}

type pickModel struct {
	allItems []QueueItem
	list     list.Model
	search   textinput.Model
	mode     pickMode
	query    string
	result   pickResult
	width    int
	height   int
}

type listItem struct {
	item QueueItem
}

// Title flags entries where the viewer owes a reply or a review.
func (i listItem) Title() string {
	title := fmt.Sprintf("%s %s", i.item.Ref, i.item.Result.Title())
	if attention(i.item) > 0 {
		title = "* " + title
	}
	return title
}

func (i listItem) Description() string {
	parts := []string{}
	if mr := i.item.MergeRequest; mr != nil {
		parts = append(parts, fmt.Sprintf("Author: %s  Age: %dd", mr.Author, i.item.AgeDays))
	}
	if i.item.Badge.Visible() {
		parts = append(parts, i.item.Badge.Label())
	}
	if i.item.Action != nil {
		parts = append(parts, render.ActionLabel(*i.item.Action))
	}
	if d := i.item.Diff; d != nil {
		parts = append(parts, fmt.Sprintf("%d files +%d -%d", d.FileCount, d.AddedLineCount, d.DeleteLineCount))
	}
	return strings.Join(parts, "  ")
}

func (i listItem) FilterValue() string {
	return searchValue(i.item)
}

func searchValue(item QueueItem) string {
	return strings.ToLower(fmt.Sprintf("%s %s", item.Ref, item.Result.Title()))
}

func newPickModel(items []QueueItem) pickModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	listModel := list.New([]list.Item{}, delegate, 0, 0)
	listModel.Title = "mrq"
	listModel.SetShowStatusBar(false)
	listModel.SetShowHelp(false)
	listModel.SetFilteringEnabled(false)

	search := textinput.New()
	search.Placeholder = "type to search"
	search.Prompt = "Search: "
	search.Focus()

	m := pickModel{
		allItems: items,
		list:     listModel,
		search:   search,
		mode:     pickModeList,
	}
	m.applyFilter()
	return m
}

func (m *pickModel) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.search.Value()))
	filtered := make([]list.Item, 0, len(m.allItems))
	for _, item := range m.allItems {
		if query == "" || strings.Contains(searchValue(item), query) {
			filtered = append(filtered, listItem{item: item})
		}
	}
	m.list.SetItems(filtered)
	if len(filtered) > 0 {
		m.list.Select(0)
	}
	m.query = m.search.Value()
}

func (m pickModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m pickModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		if m.mode == pickModeAction {
			switch msg.String() {
			case "esc", "backspace":
				m.mode = pickModeList
				return m, nil
			case "enter", "s":
				return m.chooseAction("status"), tea.Quit
			case "t":
				return m.chooseAction("threads"), tea.Quit
			case "o":
				return m.chooseAction("open"), tea.Quit
			}
		}
	}

	if m.mode == pickModeList {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		if m.search.Value() != m.query {
			m.applyFilter()
		}
		var listCmd tea.Cmd
		m.list, listCmd = m.list.Update(msg)
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
			if len(m.list.Items()) == 0 {
				return m, nil
			}
			m.mode = pickModeAction
		}
		return m, tea.Batch(cmd, listCmd)
	}

	return m, nil
}

func (m *pickModel) resize(width, height int) {
	m.width = width
	m.height = height
	chrome := lipgloss.Height(m.headerView()) + lipgloss.Height(m.footerView()) + 2
	m.list.SetSize(width, max(height-chrome, 4))
}

func (m pickModel) chooseAction(action string) pickModel {
	selected, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return m
	}
	m.result = pickResult{Item: selected.item, Action: action}
	return m
}

func (m pickModel) View() string {
	header := m.headerView()
	footer := m.footerView()
	content := m.list.View()
	if len(m.list.Items()) == 0 {
		content = "No merge requests match your search."
	}
	search := m.search.View()

	if m.mode == pickModeAction {
		return lipgloss.JoinVertical(lipgloss.Left, header, search, content, m.actionView(), footer)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, search, content, footer)
}

func (m pickModel) headerView() string {
	waiting := 0
	for _, item := range m.allItems {
		if attention(item) > 0 {
			waiting++
		}
	}
	header := fmt.Sprintf("mrq queue: %d of %d shown, %d waiting on you", len(m.list.Items()), len(m.allItems), waiting)
	return lipgloss.NewStyle().Bold(true).Render(header)
}

func (m pickModel) footerView() string {
	if m.mode == pickModeAction {
		return "esc returns to the queue"
	}
	return "filter by ref or title, arrows move, enter picks, q quits"
}

func (m pickModel) actionView() string {
	ref := ""
	if selected, ok := m.list.SelectedItem().(listItem); ok {
		ref = selected.item.Ref.String() + ": "
	}
	style := lipgloss.NewStyle().Bold(true)
	return style.Render(ref + "[s]tatus (enter)  [t]hreads  [o]pen in browser")
}

func runPickTUI(items []QueueItem) (pickResult, error) {
	model := newPickModel(items)
	program := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := program.Run()
	if err != nil {
		return pickResult{}, err
	}
	finalPick, ok := finalModel.(pickModel)
	if !ok {
		return pickResult{}, fmt.Errorf("unexpected TUI model")
	}
	return finalPick.result, nil
}
