// Package report composes the paginated session report: overview cards,
// summary stats, the assignments table, the per-path stations breakdown
// and the student roster. Section builders are pure functions of data
// fetched up-front by the caller; rendering backends decide whether text
// is shaped locally or delegated to a host engine.
package report

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/FawziYas/osce-project/internal/domain/model"
	"github.com/FawziYas/osce-project/internal/domain/scoring"
)

// Card is one labeled value in an overview section.
type Card struct {
	Title string
	Value string
}

// Row is one table row. Height is in layout units; the paginator never
// splits a row across pages regardless of its height.
type Row struct {
	Cells  []string
	Height int
}

// Table is a column-headed grid inside a section.
type Table struct {
	Columns []string
	Rows    []Row
}

// Section is one titled slice of the document.
type Section struct {
	Title string
	Cards []Card
	Table *Table
}

// Document is the composed, backend-agnostic report.
type Document struct {
	Title    string
	Sections []Section
}

// Compose builds the full document from session data and optional
// per-student results (for the summary stats section). It performs no
// network or storage access.
func Compose(data model.SessionData, results []scoring.StudentResult) Document {
	doc := Document{Title: "Session Report - " + data.SessionName}
	doc.Sections = append(doc.Sections, overviewSection(data))
	doc.Sections = append(doc.Sections, summarySection(results))
	doc.Sections = append(doc.Sections, assignmentsSection(data))
	doc.Sections = append(doc.Sections, pathsSections(data)...)
	doc.Sections = append(doc.Sections, rosterSection(data))
	return doc
}

func overviewSection(data model.SessionData) Section {
	stations := 0
	students := 0
	for _, p := range data.Paths {
		stations += len(p.Stations)
		students += len(p.Students)
	}
	return Section{
		Title: "Overview",
		Cards: []Card{
			{Title: "Session", Value: data.SessionName},
			{Title: "Paths", Value: strconv.Itoa(len(data.Paths))},
			{Title: "Stations", Value: strconv.Itoa(stations)},
			{Title: "Students", Value: strconv.Itoa(students)},
			{Title: "Examiners", Value: strconv.Itoa(len(data.Examiners))},
		},
	}
}

func summarySection(results []scoring.StudentResult) Section {
	s := scoring.Summarize(results)
	return Section{
		Title: "Summary",
		Cards: []Card{
			{Title: "Total Students", Value: strconv.Itoa(s.TotalStudents)},
			{Title: "Completed", Value: strconv.Itoa(s.CompletedStudents)},
			{Title: "Average", Value: fmt.Sprintf("%.1f%%", s.AveragePercentage)},
			{Title: "Pass Rate", Value: fmt.Sprintf("%.1f%%", s.PassRate)},
		},
	}
}

// assignmentsSection sorts by path name first, then numeric station
// number. Path names come from joining each assignment's station id back
// to its path.
func assignmentsSection(data model.SessionData) Section {
	pathByStation := make(map[string]string)
	for _, p := range data.Paths {
		for _, st := range p.Stations {
			pathByStation[st.ID] = p.Name
		}
	}

	type assignmentRow struct {
		pathName string
		a        model.Assignment
	}
	rows := make([]assignmentRow, 0, len(data.Assignments))
	for _, a := range data.Assignments {
		rows = append(rows, assignmentRow{pathName: pathByStation[a.StationID], a: a})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].pathName != rows[j].pathName {
			return rows[i].pathName < rows[j].pathName
		}
		return rows[i].a.StationNumber < rows[j].a.StationNumber
	})

	t := &Table{Columns: []string{"Path", "Station", "Station Name", "Examiner"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, Row{
			Cells: []string{
				r.pathName,
				strconv.Itoa(r.a.StationNumber),
				r.a.StationName,
				r.a.ExaminerName,
			},
			Height: 1,
		})
	}
	return Section{Title: "Examiner Assignments", Table: t}
}

// pathsSections emits one section per path, preserving the order paths
// were returned by the API.
func pathsSections(data model.SessionData) []Section {
	sections := make([]Section, 0, len(data.Paths))
	for _, p := range data.Paths {
		t := &Table{Columns: []string{"Station", "Name", "Duration"}}
		for _, st := range p.Stations {
			t.Rows = append(t.Rows, Row{
				Cells: []string{
					strconv.Itoa(st.StationNumber),
					st.Name,
					fmt.Sprintf("%d min", st.DurationMinutes),
				},
				Height: 1,
			})
		}
		sections = append(sections, Section{
			Title: fmt.Sprintf("Path %s (%d min rotation, %d students)",
				p.Name, p.RotationMinutes, p.StudentCount),
			Table: t,
		})
	}
	return sections
}

// rosterSection sorts students ascending by numeric student number.
// Non-numeric identifiers sort as 0, i.e. first. That is a deliberate
// policy, not an accident: imported rosters occasionally carry
// placeholder identifiers and these should surface at the top rather
// than disappear at the bottom.
func rosterSection(data model.SessionData) Section {
	type rosterRow struct {
		num      int
		pathName string
		s        model.Student
	}
	var rows []rosterRow
	for _, p := range data.Paths {
		for _, s := range p.Students {
			n, err := strconv.Atoi(s.StudentNumber)
			if err != nil {
				n = 0
			}
			rows = append(rows, rosterRow{num: n, pathName: p.Name, s: s})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].num < rows[j].num })

	t := &Table{Columns: []string{"No.", "Full Name", "Path", "Status"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, Row{
			Cells: []string{r.s.StudentNumber, r.s.FullName, r.pathName, r.s.Status},
			Height: 1,
		})
	}
	return Section{Title: "Student Roster", Table: t}
}
