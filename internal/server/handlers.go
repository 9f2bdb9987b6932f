package server

import (
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	obligationdomain "github.com/smallbiznis/payrail/internal/obligation/domain"
	payoutdomain "github.com/smallbiznis/payrail/internal/payout/domain"
)

type obligationLineItem struct {
	OrderItemID   string `json:"order_item_id" binding:"required"`
	StorePayeeID  string `json:"store_payee_id" binding:"required"`
	Subtotal      int64  `json:"subtotal"`
	ProcessingFee int64  `json:"processing_fee"`
}

type computeObligationsRequest struct {
	OrderID               string               `json:"order_id" binding:"required"`
	SourceTransactionID   string               `json:"source_transaction_id" binding:"required"`
	Currency              string               `json:"currency" binding:"required"`
	OccurredAt            time.Time            `json:"occurred_at" binding:"required"`
	BuyerAffiliatePayeeID string               `json:"buyer_affiliate_payee_id"`
	LineItems             []obligationLineItem `json:"line_items" binding:"required"`
}

func (s *Server) ComputeObligations(c *gin.Context) {
	var req computeObligationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	in := obligationdomain.ComputeInput{
		OrderID:               req.OrderID,
		SourceTransactionID:   req.SourceTransactionID,
		Currency:              req.Currency,
		OccurredAt:            req.OccurredAt,
		BuyerAffiliatePayeeID: req.BuyerAffiliatePayeeID,
	}
	for _, line := range req.LineItems {
		in.LineItems = append(in.LineItems, obligationdomain.LineItem{
			OrderItemID:   line.OrderItemID,
			StorePayeeID:  line.StorePayeeID,
			Subtotal:      line.Subtotal,
			ProcessingFee: line.ProcessingFee,
		})
	}

	items, err := s.obligationSvc.ComputeObligations(c.Request.Context(), in)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payout_items": items})
}

type mirrorRefundRequest struct {
	RefundTransactionID string `json:"refund_transaction_id" binding:"required"`
}

func (s *Server) MirrorRefund(c *gin.Context) {
	itemID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	var req mirrorRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	mirror, err := s.obligationSvc.MirrorRefund(c.Request.Context(), itemID, req.RefundTransactionID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payout_item": mirror})
}

type createPayoutRunRequest struct {
	Year       int    `json:"year" binding:"required"`
	Month      int    `json:"month" binding:"required"`
	ApproverID string `json:"approver_id" binding:"required"`
}

func (s *Server) CreatePayoutRun(c *gin.Context) {
	var req createPayoutRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if req.Month < 1 || req.Month > 12 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	period := payoutdomain.PeriodFor(req.Year, time.Month(req.Month))
	payouts, err := s.payoutSvc.CreatePayoutRun(c.Request.Context(), period, req.ApproverID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payouts": payouts})
}

type signPayoutsRequest struct {
	PayoutIDs  []string `json:"payout_ids" binding:"required"`
	ApproverID string   `json:"approver_id" binding:"required"`
}

func (s *Server) SignPayouts(c *gin.Context) {
	var req signPayoutsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	payoutIDs, err := parseIDs(req.PayoutIDs)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.payoutSvc.SignPayouts(c.Request.Context(), payoutIDs, req.ApproverID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"advanced":      result.Advanced,
		"still_pending": result.StillPending,
	})
}

type dispatchRequest struct {
	PayoutIDs []string `json:"payout_ids" binding:"required"`
}

func (s *Server) DispatchDisbursement(c *gin.Context) {
	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	payoutIDs, err := parseIDs(req.PayoutIDs)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	batchID, payouts, err := s.disbursementSvc.Dispatch(c.Request.Context(), payoutIDs)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"disbursement_batch_id": batchID,
		"payouts":               payouts,
	})
}

type finalizeRequest struct {
	AdvancedPayoutIDs  []string `json:"advanced_payout_ids"`
	RefundingPayoutIDs []string `json:"refunding_payout_ids"`
	BatchID            string   `json:"disbursement_batch_id" binding:"required"`
}

func (s *Server) FinalizeDisbursement(c *gin.Context) {
	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	advancedIDs, err := parseIDs(req.AdvancedPayoutIDs)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	refundingIDs, err := parseIDs(req.RefundingPayoutIDs)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	payouts, err := s.disbursementSvc.FinalizeDisbursement(c.Request.Context(), advancedIDs, refundingIDs, req.BatchID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payouts": payouts})
}

func parseIDs(raw []string) ([]snowflake.ID, error) {
	out := make([]snowflake.ID, 0, len(raw))
	for _, value := range raw {
		id, err := snowflake.ParseString(value)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
