package backend

import (
	"bytes"
	"encoding/json"
	"fmt"

	"legal-fee-tracker-go/internal/models"

	"github.com/shopspring/decimal"
)

// variant is a tagged value encoded as a single-key object, {"Active": null}.
type variant struct {
	Tag   string
	Value json.RawMessage
}

func (v *variant) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if len(fields) != 1 {
		return fmt.Errorf("variant must have exactly one tag, got %d", len(fields))
	}
	for tag, value := range fields {
		v.Tag, v.Value = tag, value
	}
	return nil
}

func (v variant) MarshalJSON() ([]byte, error) {
	value := v.Value
	if value == nil {
		value = json.RawMessage("null")
	}
	return json.Marshal(map[string]json.RawMessage{v.Tag: value})
}

func tag(name string) variant { return variant{Tag: name} }

// opt is an optional value encoded as [] or [x]. null is accepted as absent.
type opt[T any] struct {
	Value *T
}

func some[T any](v T) opt[T] { return opt[T]{Value: &v} }

func optFrom[T any](p *T) opt[T] { return opt[T]{Value: p} }

func (o *opt[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	switch len(items) {
	case 0:
		o.Value = nil
	case 1:
		o.Value = &items[0]
	default:
		return fmt.Errorf("optional value has %d elements", len(items))
	}
	return nil
}

func (o opt[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]T{*o.Value})
}

// result is the {"ok": ...} / {"err": "..."} reply of an update or lookup.
type result struct {
	Ok  json.RawMessage
	Err *string
}

func (r *result) UnmarshalJSON(data []byte) error {
	var v variant
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v.Tag {
	case "ok", "Ok":
		r.Ok = v.Value
	case "err", "Err":
		var msg string
		if err := json.Unmarshal(v.Value, &msg); err != nil {
			return fmt.Errorf("error payload: %w", err)
		}
		r.Err = &msg
	default:
		return fmt.Errorf("unknown result tag %q", v.Tag)
	}
	return nil
}

type wireLawyerProfile struct {
	Principal            string      `json:"principal"`
	Name                 string      `json:"name"`
	Email                string      `json:"email"`
	WalletAddress        string      `json:"wallet_address"`
	Bio                  string      `json:"bio"`
	Jurisdiction         string      `json:"jurisdiction"`
	Specializations      []string    `json:"specializations"`
	HourlyRate           opt[uint64] `json:"hourly_rate"`
	Verified             bool        `json:"verified"`
	Rating               float64     `json:"rating"`
	ReviewCount          uint64      `json:"review_count"`
	TotalEngagements     uint64      `json:"total_engagements"`
	CompletedEngagements uint64      `json:"completed_engagements"`
	CreatedAt            int64       `json:"created_at"`
	UpdatedAt            int64       `json:"updated_at"`
}

func (w wireLawyerProfile) model() models.LawyerProfile {
	return models.LawyerProfile{
		Principal:            w.Principal,
		Name:                 w.Name,
		Email:                w.Email,
		WalletAddress:        w.WalletAddress,
		Bio:                  w.Bio,
		Jurisdiction:         w.Jurisdiction,
		Specializations:      w.Specializations,
		HourlyRate:           w.HourlyRate.Value,
		Verified:             w.Verified,
		Rating:               w.Rating,
		ReviewCount:          w.ReviewCount,
		TotalEngagements:     w.TotalEngagements,
		CompletedEngagements: w.CompletedEngagements,
		CreatedAt:            w.CreatedAt,
		UpdatedAt:            w.UpdatedAt,
	}
}

type wireClientProfile struct {
	Principal            string  `json:"principal"`
	Name                 string  `json:"name"`
	Email                string  `json:"email"`
	WalletAddress        string  `json:"wallet_address"`
	Rating               float64 `json:"rating"`
	ReviewCount          uint64  `json:"review_count"`
	TotalEngagements     uint64  `json:"total_engagements"`
	CompletedEngagements uint64  `json:"completed_engagements"`
	CreatedAt            int64   `json:"created_at"`
	UpdatedAt            int64   `json:"updated_at"`
}

func (w wireClientProfile) model() models.ClientProfile {
	return models.ClientProfile(w)
}

type wireRegisterLawyer struct {
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	WalletAddress   string      `json:"wallet_address"`
	Bio             string      `json:"bio"`
	Jurisdiction    string      `json:"jurisdiction"`
	Specializations []string    `json:"specializations"`
	HourlyRate      opt[uint64] `json:"hourly_rate"`
}

type wireRegisterClient struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	WalletAddress string `json:"wallet_address"`
}

type wireMilestone struct {
	Id          uint64     `json:"id"`
	Description string     `json:"description"`
	Amount      uint64     `json:"amount"`
	DueDate     opt[int64] `json:"due_date"`
	Status      variant    `json:"status"`
	CompletedAt opt[int64] `json:"completed_at"`
}

func (w wireMilestone) model() (models.Milestone, error) {
	status := models.MilestoneStatus(w.Status.Tag)
	if !status.IsValid() {
		return models.Milestone{}, fmt.Errorf("unknown milestone status %q", w.Status.Tag)
	}
	return models.Milestone{
		Id:          w.Id,
		Description: w.Description,
		Amount:      w.Amount,
		DueDate:     w.DueDate.Value,
		Status:      status,
		CompletedAt: w.CompletedAt.Value,
	}, nil
}

func milestoneWire(m models.Milestone) wireMilestone {
	status := m.Status
	if status == "" {
		status = models.MilestonePending
	}
	return wireMilestone{
		Id:          m.Id,
		Description: m.Description,
		Amount:      m.Amount,
		DueDate:     optFrom(m.DueDate),
		Status:      tag(string(status)),
		CompletedAt: optFrom(m.CompletedAt),
	}
}

func decodeEngagementType(v variant) (models.EngagementType, error) {
	switch models.FeeKind(v.Tag) {
	case models.FeeHourly:
		var fee struct {
			Rate uint64 `json:"rate"`
		}
		if err := json.Unmarshal(v.Value, &fee); err != nil {
			return nil, fmt.Errorf("hourly engagement: %w", err)
		}
		return models.HourlyFee{Rate: fee.Rate}, nil
	case models.FeeFixed:
		var fee struct {
			Amount uint64 `json:"amount"`
		}
		if err := json.Unmarshal(v.Value, &fee); err != nil {
			return nil, fmt.Errorf("fixed fee engagement: %w", err)
		}
		return models.FixedFee{Amount: fee.Amount}, nil
	case models.FeeMilestone:
		var fee struct {
			Milestones []wireMilestone `json:"milestones"`
		}
		if err := json.Unmarshal(v.Value, &fee); err != nil {
			return nil, fmt.Errorf("milestone engagement: %w", err)
		}
		milestones := make([]models.Milestone, 0, len(fee.Milestones))
		for _, w := range fee.Milestones {
			m, err := w.model()
			if err != nil {
				return nil, err
			}
			milestones = append(milestones, m)
		}
		return models.MilestoneFee{Milestones: milestones}, nil
	default:
		return nil, fmt.Errorf("unknown engagement type %q", v.Tag)
	}
}

func engagementTypeWire(t models.EngagementType) (variant, error) {
	var payload any
	switch v := t.(type) {
	case models.HourlyFee:
		payload = struct {
			Rate uint64 `json:"rate"`
		}{v.Rate}
	case models.FixedFee:
		payload = struct {
			Amount uint64 `json:"amount"`
		}{v.Amount}
	case models.MilestoneFee:
		milestones := make([]wireMilestone, len(v.Milestones))
		for i, m := range v.Milestones {
			milestones[i] = milestoneWire(m)
		}
		payload = struct {
			Milestones []wireMilestone `json:"milestones"`
		}{milestones}
	default:
		return variant{}, fmt.Errorf("unsupported engagement type %T", t)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return variant{}, err
	}
	return variant{Tag: string(t.Kind()), Value: data}, nil
}

type wireTimeEntry struct {
	Id              uint64  `json:"id"`
	LawyerPrincipal string  `json:"lawyer_principal"`
	Hours           float64 `json:"hours"`
	Rate            uint64  `json:"rate"`
	Description     string  `json:"description"`
	Timestamp       int64   `json:"timestamp"`
	Approved        bool    `json:"approved"`
}

type wireDocument struct {
	Id          uint64 `json:"id"`
	Name        string `json:"name"`
	ContentHash string `json:"content_hash"`
	FileSize    uint64 `json:"file_size"`
	UploadedBy  string `json:"uploaded_by"`
	Timestamp   int64  `json:"timestamp"`
}

type wireMessage struct {
	Id        uint64 `json:"id"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

type wireEngagement struct {
	Id             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Lawyer         string          `json:"lawyer"`
	Client         string          `json:"client"`
	EngagementType variant         `json:"engagement_type"`
	Status         variant         `json:"status"`
	EscrowAmount   uint64          `json:"escrow_amount"`
	SpentAmount    uint64          `json:"spent_amount"`
	TimeEntries    []wireTimeEntry `json:"time_entries"`
	Documents      []wireDocument  `json:"documents"`
	Messages       []wireMessage   `json:"messages"`
	CreatedAt      int64           `json:"created_at"`
	UpdatedAt      int64           `json:"updated_at"`
	CompletedAt    opt[int64]      `json:"completed_at"`
}

func (w wireEngagement) model() (models.Engagement, error) {
	status := models.EngagementStatus(w.Status.Tag)
	if !status.IsValid() {
		return models.Engagement{}, fmt.Errorf("engagement %s: unknown status %q", w.Id, w.Status.Tag)
	}
	fee, err := decodeEngagementType(w.EngagementType)
	if err != nil {
		return models.Engagement{}, fmt.Errorf("engagement %s: %w", w.Id, err)
	}

	e := models.Engagement{
		Id:             w.Id,
		Title:          w.Title,
		Description:    w.Description,
		Lawyer:         w.Lawyer,
		Client:         w.Client,
		EngagementType: models.FeeArrangement{EngagementType: fee},
		Status:         status,
		EscrowAmount:   w.EscrowAmount,
		SpentAmount:    w.SpentAmount,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
		CompletedAt:    w.CompletedAt.Value,
	}
	for _, t := range w.TimeEntries {
		e.TimeEntries = append(e.TimeEntries, models.TimeEntry{
			Id:              t.Id,
			LawyerPrincipal: t.LawyerPrincipal,
			Hours:           decimal.NewFromFloat(t.Hours),
			Rate:            t.Rate,
			Description:     t.Description,
			Timestamp:       t.Timestamp,
			Approved:        t.Approved,
		})
	}
	for _, d := range w.Documents {
		e.Documents = append(e.Documents, models.Document(d))
	}
	for _, m := range w.Messages {
		e.Messages = append(e.Messages, models.Message(m))
	}
	return e, nil
}

type wireCreateEngagement struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Lawyer         string  `json:"lawyer"`
	Client         string  `json:"client"`
	EngagementType variant `json:"engagement_type"`
	EscrowAmount   uint64  `json:"escrow_amount"`
}

type wireTransaction struct {
	Id           uint64      `json:"id"`
	EngagementId string      `json:"engagement_id"`
	From         string      `json:"from"`
	To           string      `json:"to"`
	Amount       uint64      `json:"amount"`
	TxType       variant     `json:"tx_type"`
	Memo         string      `json:"memo"`
	Timestamp    int64       `json:"timestamp"`
	BlockIndex   opt[uint64] `json:"block_index"`
}

func (w wireTransaction) model() (models.Transaction, error) {
	txType := models.TransactionType(w.TxType.Tag)
	if !txType.IsValid() {
		return models.Transaction{}, fmt.Errorf("transaction %d: unknown type %q", w.Id, w.TxType.Tag)
	}
	return models.Transaction{
		Id:           w.Id,
		EngagementId: w.EngagementId,
		From:         w.From,
		To:           w.To,
		Amount:       w.Amount,
		TxType:       txType,
		Memo:         w.Memo,
		Timestamp:    w.Timestamp,
		BlockIndex:   w.BlockIndex.Value,
	}, nil
}

type wireEscrowAccount struct {
	EngagementId   string   `json:"engagement_id"`
	Client         string   `json:"client"`
	Lawyer         string   `json:"lawyer"`
	Balance        uint64   `json:"balance"`
	TotalDeposited uint64   `json:"total_deposited"`
	TotalReleased  uint64   `json:"total_released"`
	TotalRefunded  uint64   `json:"total_refunded"`
	Transactions   []uint64 `json:"transactions"`
	CreatedAt      int64    `json:"created_at"`
	UpdatedAt      int64    `json:"updated_at"`
}

func (w wireEscrowAccount) model() models.EscrowAccount {
	return models.EscrowAccount(w)
}
