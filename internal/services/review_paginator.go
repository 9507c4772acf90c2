package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"storefront-service/internal/clients"
	"storefront-service/internal/models"
	"storefront-service/internal/store"
)

// DefaultReviewPageSize is the number of reviews the API returns per page
const DefaultReviewPageSize = 5

const (
	reviewsLoadFailedMessage    = "Failed to load reviews. Please try again."
	reviewSubmitFailedMessage   = "Failed to submit review. Please try again."
	reviewConflictMessage       = "You have already reviewed this product."
	reviewDeleteFailedMessage   = "Failed to delete review. Please try again."
	reviewLoadMoreFailedMessage = "Failed to load more reviews. Please try again."
)

// ReviewGateway is the slice of the storefront API the review paginator needs
type ReviewGateway interface {
	GetProductReviews(ctx context.Context, id models.Identity, productID string, page int) ([]models.Review, error)
	GetUserProductReview(ctx context.Context, id models.Identity, productID string) (*models.Review, error)
	AddReview(ctx context.Context, id models.Identity, productID string, input models.ReviewInput) (*models.Review, error)
	UpdateReview(ctx context.Context, id models.Identity, productID string, input models.ReviewInput) (*models.Review, error)
	DeleteReview(ctx context.Context, id models.Identity, productID string) error
}

// ReviewState is the value held by the review mirror
type ReviewState struct {
	ProductID  string
	Generation uint64
	Panel      models.ReviewPanelState
	Editing    bool
	ListLoaded bool
	UserReview *models.Review
	Reviews    []models.Review
	Page       int
	HasMore    bool
	Error      string
}

func cloneReviewState(s ReviewState) ReviewState {
	if s.UserReview != nil {
		r := *s.UserReview
		s.UserReview = &r
	}
	if s.Reviews != nil {
		reviews := make([]models.Review, len(s.Reviews))
		copy(reviews, s.Reviews)
		s.Reviews = reviews
	}
	return s
}

// ReviewPaginator owns the paged review list of one product plus the current
// user's own review of it
type ReviewPaginator struct {
	gateway  ReviewGateway
	pageSize int
	mirror   *store.Mirror[ReviewState]
	opMu     sync.Mutex
	logger   *logrus.Entry
}

// NewReviewPaginator creates a collapsed paginator with no product selected.
// pageSize < 1 falls back to DefaultReviewPageSize.
func NewReviewPaginator(gateway ReviewGateway, pageSize int, logger *logrus.Entry) *ReviewPaginator {
	if pageSize < 1 {
		pageSize = DefaultReviewPageSize
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ReviewPaginator{
		gateway:  gateway,
		pageSize: pageSize,
		mirror:   store.NewMirror(ReviewState{Panel: models.ReviewPanelCollapsed}, cloneReviewState),
		logger:   logger.WithField("component", "services.reviews"),
	}
}

// PageSize returns the page size used for list fetches
func (p *ReviewPaginator) PageSize() int {
	return p.pageSize
}

// SetProduct switches to productID. A different id resets all review state;
// responses still in flight for the previous product are dropped.
func (p *ReviewPaginator) SetProduct(productID string) {
	p.mirror.Update(func(s ReviewState) ReviewState {
		if s.ProductID == productID {
			return s
		}
		return ReviewState{
			ProductID:  productID,
			Generation: s.Generation + 1,
			Panel:      models.ReviewPanelCollapsed,
		}
	})
}

// Reset drops everything loaded for the current product, keeping the product
// selected. Used when the identity changes.
func (p *ReviewPaginator) Reset() {
	p.mirror.Update(func(s ReviewState) ReviewState {
		return ReviewState{
			ProductID:  s.ProductID,
			Generation: s.Generation + 1,
			Panel:      models.ReviewPanelCollapsed,
		}
	})
}

// Open expands the panel. It always refreshes the current user's review and
// loads the first page of the list the first time only. A zero identity skips
// the user review lookup.
func (p *ReviewPaginator) Open(ctx context.Context, id models.Identity) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	current := p.mirror.Snapshot().Value
	if current.ProductID == "" {
		return ErrNoProduct
	}
	gen := current.Generation
	productID := current.ProductID
	needList := !current.ListLoaded
	previous := current.Panel

	p.mirror.Update(func(s ReviewState) ReviewState {
		if s.Generation == gen {
			s.Panel = models.ReviewPanelLoading
		}
		return s
	})

	var (
		userReview *models.Review
		firstPage  []models.Review
	)
	g, gctx := errgroup.WithContext(ctx)
	if !id.IsZero() {
		g.Go(func() error {
			review, err := p.gateway.GetUserProductReview(gctx, id, productID)
			if errors.Is(err, clients.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if review != nil && review.UserID == "" {
				review.UserID = id.UserID
			}
			userReview = review
			return nil
		})
	}
	if needList {
		g.Go(func() error {
			page, err := p.gateway.GetProductReviews(gctx, id, productID, 1)
			if err != nil {
				return err
			}
			firstPage = page
			return nil
		})
	}

	err := g.Wait()
	log := p.logger.WithField("product_id", productID)

	applied := p.applyIf(gen, func(s ReviewState) ReviewState {
		if err != nil {
			s.Panel = previous
			if previous == models.ReviewPanelLoading {
				s.Panel = models.ReviewPanelCollapsed
			}
			s.Error = reviewsLoadFailedMessage
			return s
		}
		s.UserReview = userReview
		if needList {
			s.Reviews = appendUnique(nil, firstPage)
			s.Page = 1
			s.HasMore = len(firstPage) == p.pageSize
			s.ListLoaded = true
		}
		if s.Panel == models.ReviewPanelLoading {
			s.Panel = models.ReviewPanelLoaded
		}
		if s.UserReview == nil {
			s.Editing = false
		}
		s.Error = ""
		return s
	})
	if err != nil {
		log.WithError(err).Warn("Failed to open reviews")
		return err
	}
	if !applied {
		log.Debug("Discarding reviews for a previous product")
	}
	return nil
}

// Close collapses the panel, keeping loaded data
func (p *ReviewPaginator) Close() {
	p.mirror.Update(func(s ReviewState) ReviewState {
		s.Panel = models.ReviewPanelCollapsed
		s.Editing = false
		return s
	})
}

// LoadMore fetches and appends the next page
func (p *ReviewPaginator) LoadMore(ctx context.Context, id models.Identity) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	current := p.mirror.Snapshot().Value
	if current.Panel != models.ReviewPanelLoaded || !current.ListLoaded {
		return ErrNotLoaded
	}
	if !current.HasMore {
		return ErrNoMorePages
	}

	gen := current.Generation
	next := current.Page + 1
	page, err := p.gateway.GetProductReviews(ctx, id, current.ProductID, next)
	if err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"product_id": current.ProductID,
			"page":       next,
		}).Warn("Failed to load more reviews")
		p.applyIf(gen, func(s ReviewState) ReviewState {
			s.Error = reviewLoadMoreFailedMessage
			return s
		})
		return err
	}

	p.applyIf(gen, func(s ReviewState) ReviewState {
		s.Reviews = appendUnique(s.Reviews, page)
		s.Page = next
		s.HasMore = len(page) == p.pageSize
		s.Error = ""
		return s
	})
	return nil
}

// BeginEdit enters edit mode for the current user's review
func (p *ReviewPaginator) BeginEdit() error {
	var err error
	p.mirror.Update(func(s ReviewState) ReviewState {
		if s.UserReview == nil {
			err = ErrNoUserReview
			return s
		}
		s.Editing = true
		return s
	})
	return err
}

// CancelEdit leaves edit mode
func (p *ReviewPaginator) CancelEdit() {
	p.mirror.Update(func(s ReviewState) ReviewState {
		s.Editing = false
		return s
	})
}

// Submit creates the user's review, or updates it when one already exists.
// Updating requires edit mode. A create rejected with clients.ErrConflict loads the existing review into
// the slot and enters edit mode before returning the error.
func (p *ReviewPaginator) Submit(ctx context.Context, id models.Identity, input models.ReviewInput) (*models.Review, error) {
	if id.IsZero() {
		return nil, ErrUnauthenticated
	}
	if !input.Valid() {
		return nil, ErrInvalidReview
	}
	input.Title = strings.TrimSpace(input.Title)
	input.ReviewText = strings.TrimSpace(input.ReviewText)

	p.opMu.Lock()
	defer p.opMu.Unlock()

	current := p.mirror.Snapshot().Value
	if current.ProductID == "" {
		return nil, ErrNoProduct
	}
	gen := current.Generation
	productID := current.ProductID
	previous := current.UserReview
	if previous != nil && !current.Editing {
		return nil, ErrNotEditing
	}
	log := p.logger.WithFields(logrus.Fields{"product_id": productID, "user_id": id.UserID})

	var (
		review *models.Review
		err    error
	)
	if previous == nil {
		review, err = p.gateway.AddReview(ctx, id, productID, input)
	} else {
		review, err = p.gateway.UpdateReview(ctx, id, productID, input)
	}

	if errors.Is(err, clients.ErrConflict) {
		log.Info("Review already exists, switching to edit")
		existing, lookupErr := p.gateway.GetUserProductReview(ctx, id, productID)
		p.applyIf(gen, func(s ReviewState) ReviewState {
			if lookupErr == nil && existing != nil {
				if existing.UserID == "" {
					existing.UserID = id.UserID
				}
				s.UserReview = existing
				s.Editing = true
			}
			s.Error = reviewConflictMessage
			return s
		})
		return nil, err
	}
	if err != nil {
		log.WithError(err).Warn("Failed to submit review")
		p.applyIf(gen, func(s ReviewState) ReviewState {
			s.Error = reviewSubmitFailedMessage
			return s
		})
		return nil, err
	}

	saved := mergeSubmitted(review, previous, input, id)
	p.applyIf(gen, func(s ReviewState) ReviewState {
		reviews := make([]models.Review, 0, len(s.Reviews)+1)
		reviews = append(reviews, *saved)
		for _, r := range s.Reviews {
			if r.SameAs(*saved) || (previous != nil && r.SameAs(*previous)) {
				continue
			}
			reviews = append(reviews, r)
		}
		s.Reviews = reviews
		s.UserReview = saved
		s.Editing = false
		s.Error = ""
		return s
	})
	return saved, nil
}

// Remove deletes the current user's review. An empty slot is resolved
// against the server first, so the panel does not need to be open.
func (p *ReviewPaginator) Remove(ctx context.Context, id models.Identity) error {
	if id.IsZero() {
		return ErrUnauthenticated
	}

	p.opMu.Lock()
	defer p.opMu.Unlock()

	current := p.mirror.Snapshot().Value
	if current.ProductID == "" {
		return ErrNoProduct
	}
	gen := current.Generation

	if current.UserReview == nil {
		existing, err := p.gateway.GetUserProductReview(ctx, id, current.ProductID)
		switch {
		case errors.Is(err, clients.ErrNotFound), err == nil && existing == nil:
			return ErrNoUserReview
		case err != nil:
			p.logger.WithError(err).WithField("product_id", current.ProductID).Warn("Failed to look up user review")
			p.applyIf(gen, func(s ReviewState) ReviewState {
				s.Error = reviewDeleteFailedMessage
				return s
			})
			return err
		}
		if existing.UserID == "" {
			existing.UserID = id.UserID
		}
		current.UserReview = existing
	}
	previous := *current.UserReview

	if err := p.gateway.DeleteReview(ctx, id, current.ProductID); err != nil {
		p.logger.WithError(err).WithField("product_id", current.ProductID).Warn("Failed to delete review")
		p.applyIf(gen, func(s ReviewState) ReviewState {
			s.Error = reviewDeleteFailedMessage
			return s
		})
		return err
	}

	p.applyIf(gen, func(s ReviewState) ReviewState {
		reviews := make([]models.Review, 0, len(s.Reviews))
		for _, r := range s.Reviews {
			if r.UserID == id.UserID || r.SameAs(previous) {
				continue
			}
			reviews = append(reviews, r)
		}
		s.Reviews = reviews
		s.UserReview = nil
		s.Editing = false
		s.Error = ""
		return s
	})
	return nil
}

// View returns the UI-facing panel. The generic list never repeats the
// current user's review.
func (p *ReviewPaginator) View() models.ReviewPanelView {
	return reviewView(p.mirror.Snapshot().Value)
}

// Subscribe streams the panel view after every mirror change
func (p *ReviewPaginator) Subscribe(ctx context.Context) <-chan models.ReviewPanelView {
	snaps, cancel := p.mirror.Subscribe()
	out := make(chan models.ReviewPanelView, 1)
	go func() {
		defer close(out)
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-snaps:
				if !ok {
					return
				}
				select {
				case out <- reviewView(snap.Value):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// applyIf updates the mirror only while gen is still the current generation
func (p *ReviewPaginator) applyIf(gen uint64, fn func(ReviewState) ReviewState) bool {
	applied := false
	p.mirror.Update(func(s ReviewState) ReviewState {
		if s.Generation != gen {
			return s
		}
		applied = true
		return fn(s)
	})
	return applied
}

func reviewView(s ReviewState) models.ReviewPanelView {
	reviews := make([]models.Review, 0, len(s.Reviews))
	for _, r := range s.Reviews {
		if s.UserReview != nil && r.SameAs(*s.UserReview) {
			continue
		}
		reviews = append(reviews, r)
	}
	return models.ReviewPanelView{
		ProductID:         s.ProductID,
		State:             s.Panel,
		Editing:           s.Editing,
		CurrentUserReview: s.UserReview,
		Reviews:           reviews,
		Page:              s.Page,
		HasMore:           s.HasMore,
		Error:             s.Error,
	}
}

// appendUnique appends page to list, skipping reviews already present
func appendUnique(list, page []models.Review) []models.Review {
	if list == nil {
		list = make([]models.Review, 0, len(page))
	}
	for _, r := range page {
		dup := false
		for _, existing := range list {
			if existing.SameAs(r) {
				dup = true
				break
			}
		}
		if !dup {
			list = append(list, r)
		}
	}
	return list
}

// mergeSubmitted fills in what the API left out of a create or update response
func mergeSubmitted(review, previous *models.Review, input models.ReviewInput, id models.Identity) *models.Review {
	saved := models.Review{}
	if review != nil {
		saved = *review
	}
	if saved.ID == "" && previous != nil {
		saved.ID = previous.ID
	}
	if saved.UserID == "" {
		saved.UserID = id.UserID
	}
	if saved.Title == "" {
		saved.Title = input.Title
	}
	if saved.ReviewText == "" {
		saved.ReviewText = input.ReviewText
	}
	if saved.Rating == 0 {
		saved.Rating = input.Rating
	}
	saved.Anonymous = input.Anonymous
	if saved.CreatedAt.IsZero() && previous != nil {
		saved.CreatedAt = previous.CreatedAt
	}
	return &saved
}
