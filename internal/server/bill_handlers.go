package server

import (
	"net/http"
	"strconv"

	"github.com/mmynk/splitbill/internal/middleware"
	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/service"
)

type createBillRequest struct {
	BillName     string        `json:"bill_name"`
	SplitMethod  string        `json:"split_method"`
	Participants []string      `json:"participants"`
	Items        []itemRequest `json:"items"`
}

type itemRequest struct {
	Name         string         `json:"name"`
	PricePerUnit float64        `json:"price_per_unit"`
	Quantity     int64          `json:"quantity"`
	Split        []splitRequest `json:"split,omitempty"`
}

type splitRequest struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

type billResponse struct {
	ID            string                `json:"id"`
	BillName      string                `json:"bill_name"`
	TotalAmount   float64               `json:"total_amount"`
	CreatedBy     string                `json:"created_by"`
	CreatedByName string                `json:"created_by_display_name"`
	SplitMethod   string                `json:"split_method"`
	Participants  []participantResponse `json:"participants"`
	Items         []itemResponse        `json:"items"`
	CreatedAt     int64                 `json:"created_at"`
	UpdatedAt     int64                 `json:"updated_at"`
}

type participantResponse struct {
	UserID      string  `json:"user_id,omitempty"`
	DisplayName string  `json:"display_name"`
	AmountDue   float64 `json:"amount_due"`
	Status      string  `json:"status"`
}

type itemResponse struct {
	Name         string          `json:"name"`
	PricePerUnit float64         `json:"price_per_unit"`
	Quantity     int64           `json:"quantity"`
	Split        []splitResponse `json:"split,omitempty"`
}

type splitResponse struct {
	UserID      string `json:"user_id,omitempty"`
	DisplayName string `json:"display_name"`
	Quantity    int64  `json:"quantity"`
}

func toBillResponse(bill *models.Bill) billResponse {
	resp := billResponse{
		ID:            bill.ID,
		BillName:      bill.Name,
		TotalAmount:   bill.TotalAmount,
		CreatedBy:     bill.CreatedBy,
		CreatedByName: bill.CreatedByName,
		SplitMethod:   string(bill.SplitMethod),
		CreatedAt:     bill.CreatedAt,
		UpdatedAt:     bill.UpdatedAt,
	}
	for _, p := range bill.Participants {
		resp.Participants = append(resp.Participants, participantResponse{
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			AmountDue:   p.AmountDue,
			Status:      string(p.Status),
		})
	}
	for _, item := range bill.Items {
		ir := itemResponse{
			Name:         item.Name,
			PricePerUnit: item.PricePerUnit,
			Quantity:     item.Quantity,
		}
		for _, split := range item.Split {
			ir.Split = append(ir.Split, splitResponse{
				UserID:      split.UserID,
				DisplayName: split.DisplayName,
				Quantity:    split.Quantity,
			})
		}
		resp.Items = append(resp.Items, ir)
	}
	return resp
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req createBillRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	input := service.BillInput{
		Name:         req.BillName,
		SplitMethod:  req.SplitMethod,
		Participants: req.Participants,
	}
	for _, item := range req.Items {
		in := service.ItemInput{
			Name:         item.Name,
			PricePerUnit: item.PricePerUnit,
			Quantity:     item.Quantity,
		}
		for _, split := range item.Split {
			in.Split = append(in.Split, service.SplitInput{
				Name:     split.Name,
				Quantity: split.Quantity,
			})
		}
		input.Items = append(input.Items, in)
	}

	bill, err := s.bills.Create(r.Context(), middleware.GetUserID(r.Context()), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBillResponse(bill))
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.bills.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]billResponse, 0, len(bills))
	for _, bill := range bills {
		resp = append(resp, toBillResponse(bill))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	bill, err := s.bills.Get(r.Context(), r.PathValue("id"), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBillResponse(bill))
}

type payRequest struct {
	Password string `json:"password"`
}

type receiptResponse struct {
	BillID      string  `json:"bill_id"`
	Participant string  `json:"participant"`
	AmountPaid  float64 `json:"amount_paid"`
	NewBalance  float64 `json:"new_balance"`
}

func (s *Server) handlePayBill(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	receipt, err := s.settlements.Pay(r.Context(), r.PathValue("id"), middleware.GetUserID(r.Context()), req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, receiptResponse{
		BillID:      receipt.BillID,
		Participant: receipt.Participant,
		AmountPaid:  receipt.AmountPaid,
		NewBalance:  receipt.NewBalance,
	})
}

func (s *Server) handleMarkExternalPaid(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, service.ErrInvalidIndex)
		return
	}

	receipt, err := s.settlements.MarkExternalPaid(r.Context(), r.PathValue("id"), middleware.GetUserID(r.Context()), index)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, receiptResponse{
		BillID:      receipt.BillID,
		Participant: receipt.Participant,
		AmountPaid:  receipt.AmountPaid,
	})
}
