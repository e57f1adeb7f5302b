package model

// Remote DTOs mirror the fixed contracts of the surrounding web
// application. Field names match its JSON exactly.

// Station is one station within a path.
type Station struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	StationNumber   int    `json:"station_number"`
	DurationMinutes int    `json:"duration_minutes"`
}

// Student is one session student as returned inside a path.
type Student struct {
	FullName      string `json:"full_name"`
	StudentNumber string `json:"student_number"`
	Status        string `json:"status"`
}

// Path is one rotation circuit with its stations and students.
type Path struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	RotationMinutes int       `json:"rotation_minutes"`
	StudentCount    int       `json:"student_count"`
	Stations        []Station `json:"stations"`
	Students        []Student `json:"students"`
}

// Assignment links an examiner to a station for the session.
type Assignment struct {
	StationID     string `json:"station_id"`
	ExaminerID    string `json:"examiner_id"`
	ExaminerName  string `json:"examiner_name"`
	StationName   string `json:"station_name"`
	StationNumber int    `json:"station_number"`
}

// Examiner is one registered examiner.
type Examiner struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

// SessionData bundles everything the report composer needs, fetched
// up-front by the caller so section builders stay pure.
type SessionData struct {
	SessionID   string
	SessionName string
	Paths       []Path
	Assignments []Assignment
	Examiners   []Examiner
}
