// File: internal/bid/service.go

// Package bid is the single authority over bid and sale state. Every
// transition of Bid.Status, and every flip of a listing into or out of
// its sold state, funnels through the Service here inside one
// transaction. Handlers, jobs and other services must not write these
// fields directly.
package bid

import (
	"context"
	"fmt"

	"tradepost_backend/internal/common"
	"tradepost_backend/internal/listing"
	"tradepost_backend/internal/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the bid engine's operations.
type Service interface {
	PlaceBid(ctx context.Context, listingID, bidderID uuid.UUID, amount int64) (*Bid, error)
	AcceptBid(ctx context.Context, bidID, actingUserID uuid.UUID) (*AcceptResult, error)
	CancelBid(ctx context.Context, bidID, actingUserID uuid.UUID) (*Bid, error)
	FinalizeSale(ctx context.Context, bidID, actingUserID uuid.UUID) (*listing.Listing, error)

	CurrentPrice(ctx context.Context, listingID uuid.UUID) (*PriceQuote, error)
	GetListingBids(ctx context.Context, listingID uuid.UUID, query common.PaginationQuery) ([]Bid, *common.Pagination, error)
	GetUserBids(ctx context.Context, bidderID uuid.UUID, query common.PaginationQuery) ([]Bid, *common.Pagination, error)
}

// ServiceImplementation implements the bid Service interface.
type ServiceImplementation struct {
	tx       TxManager
	repo     Repository
	listings listing.Repository
	notifier notification.Service
	logger   *zap.Logger
}

// NewService creates a new bid service.
func NewService(
	tx TxManager,
	repo Repository,
	listings listing.Repository,
	notifier notification.Service,
	logger *zap.Logger,
) Service {
	return &ServiceImplementation{
		tx:       tx,
		repo:     repo,
		listings: listings,
		notifier: notifier,
		logger:   logger,
	}
}

// pushJob is a push dispatch queued during a transaction and sent only
// after commit. Delivery failures are logged by the notifier and never
// reach the caller.
type pushJob struct {
	userID uuid.UUID
	title  string
	body   string
}

func (s *ServiceImplementation) dispatch(ctx context.Context, jobs []pushJob) {
	for _, j := range jobs {
		s.notifier.Push(ctx, j.userID, j.title, j.body)
	}
}

// PlaceBid validates a new offer against the listing's competitive state
// and appends it to the ledger as pending.
func (s *ServiceImplementation) PlaceBid(ctx context.Context, listingID, bidderID uuid.UUID, amount int64) (*Bid, error) {
	var (
		created *Bid
		pushes  []pushJob
	)

	err := s.tx.Do(ctx, func(repos TxRepos) error {
		l, err := repos.Listings.FindByID(ctx, listingID, false)
		if err != nil {
			return err
		}
		if l.SellerID == bidderID {
			return common.ErrForbidden.WithDetails("You cannot bid on your own listing.")
		}
		if !l.IsAuction() {
			return common.ErrConflict.WithDetails("This listing has a fixed price and does not accept bids.")
		}
		if err := s.reconcileForBidding(ctx, repos, l); err != nil {
			return err
		}

		minRequired, err := s.minRequiredAmount(ctx, repos.Bids, l)
		if err != nil {
			return err
		}
		if amount < minRequired {
			return common.NewValidationAPIError(map[string]string{
				"amount": fmt.Sprintf("Bid must be at least %d.", minRequired),
			})
		}

		newBid := &Bid{
			ListingID: l.ID,
			BidderID:  bidderID,
			Amount:    amount,
			Status:    StatusPending,
		}
		if err := repos.Bids.Create(ctx, newBid); err != nil {
			return err
		}
		created = newBid

		sellerMsg := fmt.Sprintf("New bid of %d on your listing '%s'.", amount, l.Title)
		if err := repos.Notifications.Create(ctx, &notification.Notification{
			UserID:    l.SellerID,
			Type:      notification.BidReceived,
			Message:   sellerMsg,
			ListingID: &l.ID,
		}); err != nil {
			return err
		}
		pushes = append(pushes, pushJob{l.SellerID, "New bid", sellerMsg})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Bid placed",
		zap.String("bidID", created.ID.String()),
		zap.String("listingID", listingID.String()),
		zap.Int64("amount", amount),
	)
	s.dispatch(ctx, pushes)
	return created, nil
}

// AcceptBid marks a pending bid accepted, rejects all other pending bids
// on the listing, marks the listing sold, and opens the seller-buyer
// conversation, all atomically.
//
// Accepting does not record a winner on the listing. The winner is set
// only by FinalizeSale; acceptance is the reversible first phase.
func (s *ServiceImplementation) AcceptBid(ctx context.Context, bidID, actingUserID uuid.UUID) (*AcceptResult, error) {
	var (
		result AcceptResult
		pushes []pushJob
	)

	err := s.tx.Do(ctx, func(repos TxRepos) error {
		b, l, err := s.loadBidWithListing(ctx, repos, bidID)
		if err != nil {
			return err
		}
		if l.SellerID != actingUserID {
			return common.ErrForbidden.WithDetails("Only the seller can accept a bid.")
		}
		if b.Status != StatusPending {
			return common.ErrConflict.WithDetails("Only pending bids can be accepted.")
		}

		if err := repos.Bids.UpdateStatus(ctx, b.ID, StatusAccepted); err != nil {
			return err
		}
		b.Status = StatusAccepted

		rejected, err := repos.Bids.RejectOtherPending(ctx, l.ID, b.ID)
		if err != nil {
			return err
		}

		if err := repos.Listings.UpdateStatus(ctx, l.ID, listing.StatusSold); err != nil {
			return err
		}

		conv, err := repos.Conversations.FindOrCreate(ctx, l.ID, l.SellerID, b.BidderID)
		if err != nil {
			return err
		}

		acceptedMsg := fmt.Sprintf("Your bid of %d on '%s' was accepted.", b.Amount, l.Title)
		if err := repos.Notifications.Create(ctx, &notification.Notification{
			UserID:    b.BidderID,
			Type:      notification.BidAccepted,
			Message:   acceptedMsg,
			ListingID: &l.ID,
		}); err != nil {
			return err
		}
		pushes = append(pushes, pushJob{b.BidderID, "Bid accepted", acceptedMsg})

		rejectedMsg := fmt.Sprintf("Your bid on '%s' was not selected.", l.Title)
		for i := range rejected {
			if err := repos.Notifications.Create(ctx, &notification.Notification{
				UserID:    rejected[i].BidderID,
				Type:      notification.BidRejected,
				Message:   rejectedMsg,
				ListingID: &l.ID,
			}); err != nil {
				return err
			}
			pushes = append(pushes, pushJob{rejected[i].BidderID, "Bid rejected", rejectedMsg})
		}

		result = AcceptResult{Bid: b, Conversation: conv}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Bid accepted",
		zap.String("bidID", bidID.String()),
		zap.String("sellerID", actingUserID.String()),
	)
	s.dispatch(ctx, pushes)
	return &result, nil
}

// CancelBid rejects a pending or accepted bid. When the cancelled bid was
// the one holding the listing sold, and no other accepted bid remains,
// the listing reopens for bidding.
func (s *ServiceImplementation) CancelBid(ctx context.Context, bidID, actingUserID uuid.UUID) (*Bid, error) {
	var (
		cancelled *Bid
		pushes    []pushJob
	)

	err := s.tx.Do(ctx, func(repos TxRepos) error {
		b, l, err := s.loadBidWithListing(ctx, repos, bidID)
		if err != nil {
			return err
		}
		if l.SellerID != actingUserID {
			return common.ErrForbidden.WithDetails("Only the seller can cancel a bid.")
		}
		if b.Status == StatusRejected {
			return common.ErrConflict.WithDetails("This bid has already been rejected.")
		}

		wasAccepted := b.Status == StatusAccepted
		if err := repos.Bids.UpdateStatus(ctx, b.ID, StatusRejected); err != nil {
			return err
		}
		b.Status = StatusRejected
		cancelled = b

		if wasAccepted && l.Status == listing.StatusSold {
			remaining, err := repos.Bids.CountAcceptedExcluding(ctx, l.ID, b.ID)
			if err != nil {
				return err
			}
			if remaining == 0 {
				if err := repos.Listings.ClearSale(ctx, l.ID); err != nil {
					return err
				}
			}
		}

		var notifType notification.Type
		var msg string
		if wasAccepted {
			notifType = notification.BidCancelled
			msg = fmt.Sprintf("Your accepted offer on '%s' was cancelled by the seller.", l.Title)
		} else {
			notifType = notification.BidRejected
			msg = fmt.Sprintf("Your offer on '%s' was declined.", l.Title)
		}
		if err := repos.Notifications.Create(ctx, &notification.Notification{
			UserID:    b.BidderID,
			Type:      notifType,
			Message:   msg,
			ListingID: &l.ID,
		}); err != nil {
			return err
		}
		pushes = append(pushes, pushJob{b.BidderID, "Offer update", msg})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Bid cancelled",
		zap.String("bidID", bidID.String()),
		zap.String("sellerID", actingUserID.String()),
	)
	s.dispatch(ctx, pushes)
	return cancelled, nil
}

// FinalizeSale records the accepted bid's bidder as the listing's winner
// and closes the sale for good. It is the second phase after AcceptBid
// and is terminal for bidding on the listing.
func (s *ServiceImplementation) FinalizeSale(ctx context.Context, bidID, actingUserID uuid.UUID) (*listing.Listing, error) {
	var (
		finalized *listing.Listing
		pushes    []pushJob
	)

	err := s.tx.Do(ctx, func(repos TxRepos) error {
		b, l, err := s.loadBidWithListing(ctx, repos, bidID)
		if err != nil {
			return err
		}
		if l.SellerID != actingUserID {
			return common.ErrForbidden.WithDetails("Only the seller can finalize a sale.")
		}
		if l.Status == listing.StatusSold && l.WinnerID != nil {
			return common.ErrConflict.WithDetails("This sale has already been finalized.")
		}
		if b.Status != StatusAccepted {
			return common.ErrConflict.WithDetails("Only an accepted bid can be finalized.")
		}

		if err := repos.Listings.SetWinner(ctx, l.ID, b.BidderID); err != nil {
			return err
		}
		l.Status = listing.StatusSold
		l.WinnerID = &b.BidderID
		finalized = l

		msg := fmt.Sprintf("The sale of '%s' to you is finalized at %d.", l.Title, b.Amount)
		if err := repos.Notifications.Create(ctx, &notification.Notification{
			UserID:    b.BidderID,
			Type:      notification.SaleFinalized,
			Message:   msg,
			ListingID: &l.ID,
		}); err != nil {
			return err
		}
		pushes = append(pushes, pushJob{b.BidderID, "Sale finalized", msg})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Sale finalized",
		zap.String("bidID", bidID.String()),
		zap.String("listingID", finalized.ID.String()),
		zap.String("winnerID", finalized.WinnerID.String()),
	)
	s.dispatch(ctx, pushes)
	return finalized, nil
}

// CurrentPrice derives the competitive price of a listing. The price is
// never stored: it is the highest bid, else the starting bid, else the
// seller's market price.
func (s *ServiceImplementation) CurrentPrice(ctx context.Context, listingID uuid.UUID) (*PriceQuote, error) {
	l, err := s.listings.FindByID(ctx, listingID, false)
	if err != nil {
		return nil, err
	}

	quote := &PriceQuote{ListingID: l.ID}
	count, err := s.repo.CountForListing(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	quote.BidCount = count

	if !l.IsAuction() {
		quote.CurrentPrice = l.MarketPrice
		return quote, nil
	}

	highest, hasBids, err := s.repo.HighestAmount(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	switch {
	case hasBids:
		quote.CurrentPrice = highest
		quote.MinNextBid = highest + l.MinBidIncrement
	case l.StartingBid != nil:
		quote.CurrentPrice = *l.StartingBid
		quote.MinNextBid = *l.StartingBid
	default:
		quote.CurrentPrice = l.MarketPrice
		quote.MinNextBid = 1
	}
	return quote, nil
}

func (s *ServiceImplementation) GetListingBids(ctx context.Context, listingID uuid.UUID, query common.PaginationQuery) ([]Bid, *common.Pagination, error) {
	if _, err := s.listings.FindByID(ctx, listingID, false); err != nil {
		return nil, nil, err
	}
	return s.repo.FindByListingID(ctx, listingID, query)
}

func (s *ServiceImplementation) GetUserBids(ctx context.Context, bidderID uuid.UUID, query common.PaginationQuery) ([]Bid, *common.Pagination, error) {
	return s.repo.FindByBidderID(ctx, bidderID, query)
}

// reconcileForBidding gates PlaceBid on the listing's lifecycle state and
// repairs the one inconsistency that can drift in: a listing marked sold
// while holding zero accepted bids. The repair is a single status flip;
// bid rows are never touched. Expired listings are never repaired here,
// the seller has to republish explicitly.
func (s *ServiceImplementation) reconcileForBidding(ctx context.Context, repos TxRepos, l *listing.Listing) error {
	switch l.Status {
	case listing.StatusActive:
		return nil
	case listing.StatusExpired:
		return common.ErrConflict.WithDetails("This listing has expired. It must be republished before it can accept bids.")
	case listing.StatusSold:
		accepted, err := repos.Bids.CountAccepted(ctx, l.ID)
		if err != nil {
			return err
		}
		if accepted > 0 {
			return common.ErrConflict.WithDetails("This listing has been sold.")
		}
		if err := repos.Listings.ClearSale(ctx, l.ID); err != nil {
			return err
		}
		s.logger.Warn("Repaired sold listing with no accepted bid",
			zap.String("listingID", l.ID.String()),
			zap.String("priorStatus", string(l.Status)),
		)
		l.Status = listing.StatusActive
		l.WinnerID = nil
		return nil
	default:
		return common.ErrConflict.WithDetails("This listing is not open for bidding.")
	}
}

// minRequiredAmount computes the lowest acceptable next bid: highest bid
// plus increment once any bid exists, else the starting bid, else 1.
func (s *ServiceImplementation) minRequiredAmount(ctx context.Context, bids Repository, l *listing.Listing) (int64, error) {
	highest, hasBids, err := bids.HighestAmount(ctx, l.ID)
	if err != nil {
		return 0, err
	}
	if hasBids {
		return highest + l.MinBidIncrement, nil
	}
	if l.StartingBid != nil {
		return *l.StartingBid, nil
	}
	return 1, nil
}

// loadBidWithListing fetches a bid and its listing inside the current
// transaction.
func (s *ServiceImplementation) loadBidWithListing(ctx context.Context, repos TxRepos, bidID uuid.UUID) (*Bid, *listing.Listing, error) {
	b, err := repos.Bids.FindByID(ctx, bidID, false)
	if err != nil {
		return nil, nil, err
	}
	l, err := repos.Listings.FindByID(ctx, b.ListingID, false)
	if err != nil {
		return nil, nil, err
	}
	return b, l, nil
}
