package http

import (
	"time"

	"github.com/safeher/platform/internal/feed"
	"github.com/safeher/platform/internal/repo"
)

type contactView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

func contactToView(c repo.EmergencyContact) contactView {
	return contactView{
		ID:        c.ID.String(),
		Name:      c.Name,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
	}
}

func contactsToView(contacts []repo.EmergencyContact) []contactView {
	out := make([]contactView, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, contactToView(c))
	}
	return out
}

func incidentsToView(events []repo.SOSEvent) []feed.Incident {
	out := make([]feed.Incident, 0, len(events))
	for _, e := range events {
		out = append(out, feed.IncidentFromRecord(e))
	}
	return out
}

type locationView struct {
	ID        string    `json:"id"`
	SOSID     string    `json:"sos_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Battery   int       `json:"battery"`
	Timestamp time.Time `json:"timestamp"`
}

func locationToView(u repo.LocationUpdate) locationView {
	return locationView{
		ID:        u.ID.String(),
		SOSID:     u.SOSID.String(),
		Latitude:  u.Latitude,
		Longitude: u.Longitude,
		Battery:   u.Battery,
		Timestamp: u.CreatedAt,
	}
}

func locationsToView(updates []repo.LocationUpdate) []locationView {
	out := make([]locationView, 0, len(updates))
	for _, u := range updates {
		out = append(out, locationToView(u))
	}
	return out
}

type zoneView struct {
	ID          string     `json:"id"`
	PoliceID    string     `json:"police_id"`
	PoliceName  string     `json:"police_name"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	RiskLevel   string     `json:"risk_level"`
	Reason      string     `json:"reason"`
	Description string     `json:"description,omitempty"`
	Active      bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UnmarkedAt  *time.Time `json:"unmarked_at,omitempty"`
}

func zoneToView(z repo.FlaggedZone) zoneView {
	return zoneView{
		ID:          z.ID.String(),
		PoliceID:    z.PoliceID.String(),
		PoliceName:  z.PoliceName,
		Latitude:    z.Latitude,
		Longitude:   z.Longitude,
		RiskLevel:   z.RiskLevel,
		Reason:      z.Reason,
		Description: z.Description,
		Active:      z.Active,
		CreatedAt:   z.CreatedAt,
		UnmarkedAt:  z.UnmarkedAt,
	}
}

func zonesToView(zones []repo.FlaggedZone) []zoneView {
	out := make([]zoneView, 0, len(zones))
	for _, z := range zones {
		out = append(out, zoneToView(z))
	}
	return out
}

type issueView struct {
	ID           string     `json:"id"`
	ReporterID   string     `json:"reporter_id"`
	ReporterName string     `json:"reporter_name"`
	AssigneeID   *string    `json:"assignee_id,omitempty"`
	AssigneeName *string    `json:"assignee_name,omitempty"`
	Description  string     `json:"description"`
	Location     string     `json:"location"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

func issueToView(i repo.Issue) issueView {
	view := issueView{
		ID:           i.ID.String(),
		ReporterID:   i.ReporterID.String(),
		ReporterName: i.ReporterName,
		AssigneeName: i.AssigneeName,
		Description:  i.Description,
		Location:     i.Location,
		Latitude:     i.Latitude,
		Longitude:    i.Longitude,
		Status:       i.Status,
		CreatedAt:    i.CreatedAt,
		AcceptedAt:   i.AcceptedAt,
		CompletedAt:  i.CompletedAt,
	}
	if i.AssigneeID != nil {
		id := i.AssigneeID.String()
		view.AssigneeID = &id
	}
	return view
}

func issuesToView(issues []repo.Issue) []issueView {
	out := make([]issueView, 0, len(issues))
	for _, i := range issues {
		out = append(out, issueToView(i))
	}
	return out
}

type chatMessageView struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	SenderRole string    `json:"sender_role"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

func chatMessageToView(m repo.ChatMessage) chatMessageView {
	return chatMessageView{
		ID:         m.ID.String(),
		SenderID:   m.SenderID.String(),
		SenderName: m.SenderName,
		SenderRole: m.SenderRole,
		Text:       m.Text,
		CreatedAt:  m.CreatedAt,
	}
}

func chatMessagesToView(messages []repo.ChatMessage) []chatMessageView {
	out := make([]chatMessageView, 0, len(messages))
	for _, m := range messages {
		out = append(out, chatMessageToView(m))
	}
	return out
}

type abuseRecordView struct {
	ID            string    `json:"id"`
	WomanID       string    `json:"woman_id"`
	WomanName     string    `json:"woman_name"`
	WomanPhone    string    `json:"woman_phone"`
	SOSCount      int       `json:"sos_count"`
	FakeCallCount int       `json:"fake_call_count"`
	Flagged       bool      `json:"is_flagged"`
	FlaggedReason *string   `json:"flagged_reason,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func abuseRecordsToView(records []repo.AbuseRecord) []abuseRecordView {
	out := make([]abuseRecordView, 0, len(records))
	for _, r := range records {
		out = append(out, abuseRecordView{
			ID:            r.ID.String(),
			WomanID:       r.WomanID.String(),
			WomanName:     r.WomanName,
			WomanPhone:    r.WomanPhone,
			SOSCount:      r.SOSCount,
			FakeCallCount: r.FakeCallCount,
			Flagged:       r.Flagged,
			FlaggedReason: r.FlaggedReason,
			UpdatedAt:     r.UpdatedAt,
		})
	}
	return out
}

type flaggedUserView struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	UserName      string    `json:"user_name"`
	UserPhone     string    `json:"user_phone"`
	FlaggedByID   string    `json:"flagged_by_id"`
	FlaggedByName string    `json:"flagged_by_name"`
	Reason        string    `json:"reason"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

func flaggedUserToView(f repo.FlaggedUser) flaggedUserView {
	return flaggedUserView{
		ID:            f.ID.String(),
		UserID:        f.UserID.String(),
		UserName:      f.UserName,
		UserPhone:     f.UserPhone,
		FlaggedByID:   f.FlaggedByID.String(),
		FlaggedByName: f.FlaggedByName,
		Reason:        f.Reason,
		Status:        f.Status,
		CreatedAt:     f.CreatedAt,
	}
}

func flaggedUsersToView(reports []repo.FlaggedUser) []flaggedUserView {
	out := make([]flaggedUserView, 0, len(reports))
	for _, f := range reports {
		out = append(out, flaggedUserToView(f))
	}
	return out
}

type userView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Approved  bool      `json:"is_approved"`
	Suspended bool      `json:"is_suspended"`
	CreatedAt time.Time `json:"created_at"`
}

func userToView(u repo.User) userView {
	return userView{
		ID:        u.ID.String(),
		Name:      u.Name,
		Phone:     u.Phone,
		Email:     u.Email,
		Role:      u.Role,
		Approved:  u.Approved,
		Suspended: u.Suspended,
		CreatedAt: u.CreatedAt,
	}
}

func usersToView(users []repo.User) []userView {
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, userToView(u))
	}
	return out
}
