package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	shopdomain "github.com/ghuser/ghshop/services/shop/domain"
	"github.com/ghuser/ghshop/services/shop/domain/models"
	"github.com/ghuser/ghshop/services/shop/domain/repositories"
	"github.com/ghuser/ghshop/services/shop/domain/views"
)

// orderQueryRepository implements every fetch strategy as an explicit plan:
// each method issues a known, fixed set of statements.
type orderQueryRepository struct {
	db        *gorm.DB
	ids       *identityMap
	batchSize int
}

// criteria is an OrderSearch optionally narrowed to specific order ids.
type criteria struct {
	search   repositories.OrderSearch
	orderIDs []uuid.UUID
}

// Column sets. Aliases match the snake_case field names of the row structs.
const (
	headerColumns = "o.id AS order_id, o.order_date AS order_date, o.status AS order_status, " +
		"m.id AS member_id, m.name AS member_name, m.city AS member_city, m.street AS member_street, " +
		"m.zipcode AS member_zipcode, m.created_at AS member_created_at, " +
		"d.id AS delivery_id, d.city AS delivery_city, d.street AS delivery_street, " +
		"d.zipcode AS delivery_zipcode, d.status AS delivery_status"

	lineColumns = "oi.id AS line_id, oi.order_id AS line_order_id, oi.order_price AS line_order_price, " +
		"oi.count AS line_count, " +
		"i.id AS item_id, i.dtype AS item_dtype, i.name AS item_name, i.price AS item_price, " +
		"i.stock_quantity AS item_stock_quantity, i.author AS item_author, i.isbn AS item_isbn, " +
		"i.artist AS item_artist, i.etc AS item_etc, i.director AS item_director, i.actor AS item_actor, " +
		"i.created_at AS item_created_at"

	summaryColumns = "o.id AS order_id, m.name AS member_name, o.order_date AS order_date, o.status AS order_status, " +
		"d.city AS delivery_city, d.street AS delivery_street, d.zipcode AS delivery_zipcode"

	flatLineColumns = "i.name AS item_name, oi.order_price AS order_price, oi.count AS line_count"
)

// headerRow is one order joined with its member and delivery.
type headerRow struct {
	OrderID         uuid.UUID
	OrderDate       time.Time
	OrderStatus     string
	MemberID        uuid.UUID
	MemberName      string
	MemberCity      string
	MemberStreet    string
	MemberZipcode   string
	MemberCreatedAt time.Time
	DeliveryID      uuid.UUID
	DeliveryCity    string
	DeliveryStreet  string
	DeliveryZipcode string
	DeliveryStatus  string
}

// lineRow is one order item joined with its item.
type lineRow struct {
	LineID            uuid.UUID
	LineOrderID       uuid.UUID
	LineOrderPrice    int
	LineCount         int
	ItemID            uuid.UUID
	ItemDtype         string
	ItemName          string
	ItemPrice         int
	ItemStockQuantity int
	ItemAuthor        string
	ItemIsbn          string
	ItemArtist        string
	ItemEtc           string
	ItemDirector      string
	ItemActor         string
	ItemCreatedAt     time.Time
}

// graphRow is the fully joined row of FetchJoinAll.
type graphRow struct {
	Header headerRow `gorm:"embedded"`
	Line   lineRow   `gorm:"embedded"`
}

type summaryRow struct {
	OrderID         uuid.UUID
	MemberName      string
	OrderDate       time.Time
	OrderStatus     string
	DeliveryCity    string
	DeliveryStreet  string
	DeliveryZipcode string
}

func (r summaryRow) view() views.OrderSummary {
	return views.OrderSummary{
		OrderID:    r.OrderID,
		MemberName: r.MemberName,
		OrderDate:  r.OrderDate,
		Status:     models.OrderStatus(r.OrderStatus),
		Address:    views.Address{City: r.DeliveryCity, Street: r.DeliveryStreet, Zipcode: r.DeliveryZipcode},
	}
}

type projectionLineRow struct {
	OrderID    uuid.UUID
	ItemName   string
	OrderPrice int
	LineCount  int
}

type flatRow struct {
	Summary    summaryRow `gorm:"embedded"`
	ItemName   string
	OrderPrice int
	LineCount  int
}

func (r *orderQueryRepository) FindOrders(ctx context.Context, search repositories.OrderSearch, strategy repositories.FetchStrategy) ([]*models.Order, error) {
	if err := search.Validate(); err != nil {
		return nil, err
	}
	c := criteria{search: search}
	switch strategy {
	case repositories.FetchNaive:
		return r.naive(ctx, c)
	case repositories.FetchJoin:
		return r.joinToOne(ctx, c)
	case repositories.FetchJoinAll:
		if search.Paged() {
			return nil, shopdomain.ErrPaginationUnsupported
		}
		return r.joinAll(ctx, c)
	}
	return nil, fmt.Errorf("%w: %q does not load aggregates", shopdomain.ErrInvalidOrder, strategy)
}

// FindOrderViews runs FetchProjection: one statement for the order
// projections, one IN-list statement for all of their lines.
func (r *orderQueryRepository) FindOrderViews(ctx context.Context, search repositories.OrderSearch) ([]views.Order, error) {
	if err := search.Validate(); err != nil {
		return nil, err
	}
	summaries, err := r.summaries(ctx, criteria{search: search})
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return []views.Order{}, nil
	}

	ids := make([]uuid.UUID, len(summaries))
	for i, s := range summaries {
		ids[i] = s.OrderID
	}
	var lines []projectionLineRow
	err = r.db.WithContext(ctx).
		Table("order_items oi").
		Joins("JOIN items i ON i.id = oi.item_id").
		Where("oi.order_id IN ?", ids).
		Select("oi.order_id AS order_id, i.name AS item_name, oi.order_price AS order_price, oi.count AS line_count").
		Order("oi.order_id, oi.position").
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}

	byOrder := make(map[uuid.UUID][]views.OrderLine, len(summaries))
	for _, l := range lines {
		byOrder[l.OrderID] = append(byOrder[l.OrderID], views.OrderLine{ItemName: l.ItemName, OrderPrice: l.OrderPrice, Count: l.LineCount})
	}
	out := make([]views.Order, len(summaries))
	for i, s := range summaries {
		out[i] = views.Order{
			OrderID:    s.OrderID,
			MemberName: s.MemberName,
			OrderDate:  s.OrderDate,
			Status:     s.Status,
			Address:    s.Address,
			Lines:      byOrder[s.OrderID],
		}
	}
	return out, nil
}

// FindFlatRows runs FetchFlat: a single statement, one row per order line.
// The order cap applies to orders, so every returned order is complete.
func (r *orderQueryRepository) FindFlatRows(ctx context.Context, search repositories.OrderSearch) ([]views.FlatRow, error) {
	if err := search.Validate(); err != nil {
		return nil, err
	}
	c := criteria{search: search}
	var rows []flatRow
	err := r.graph(ctx, c, true).
		Select(summaryColumns + ", " + flatLineColumns).
		Order("o.order_date, o.id, oi.position").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query flat order rows: %w", err)
	}

	out := make([]views.FlatRow, len(rows))
	for i, row := range rows {
		s := row.Summary.view()
		out[i] = views.FlatRow{
			OrderID:    s.OrderID,
			MemberName: s.MemberName,
			OrderDate:  s.OrderDate,
			Status:     s.Status,
			Address:    s.Address,
			ItemName:   row.ItemName,
			OrderPrice: row.OrderPrice,
			Count:      row.LineCount,
		}
	}
	return out, nil
}

// FindSummaries returns the to-one projection of each order in one statement.
func (r *orderQueryRepository) FindSummaries(ctx context.Context, search repositories.OrderSearch) ([]views.OrderSummary, error) {
	if err := search.Validate(); err != nil {
		return nil, err
	}
	return r.summaries(ctx, criteria{search: search})
}

// filtered starts from orders ⨝ members with every predicate applied.
func (r *orderQueryRepository) filtered(ctx context.Context, c criteria) *gorm.DB {
	q := r.db.WithContext(ctx).
		Table("orders o").
		Joins("JOIN members m ON m.id = o.member_id")
	if c.search.Status != "" {
		q = q.Where("o.status = ?", string(c.search.Status))
	}
	if name := strings.TrimSpace(c.search.MemberName); name != "" {
		q = q.Where(`LOWER(m.name) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(name))+"%")
	}
	if c.search.MemberID != uuid.Nil {
		q = q.Where("o.member_id = ?", c.search.MemberID)
	}
	if len(c.orderIDs) > 0 {
		q = q.Where("o.id IN ?", c.orderIDs)
	}
	return q
}

// paged orders the filtered set deterministically and applies offset and the capped limit.
func paged(q *gorm.DB, s repositories.OrderSearch) *gorm.DB {
	q = q.Order("o.order_date, o.id").Limit(s.EffectiveLimit())
	if s.Offset > 0 {
		q = q.Offset(s.Offset)
	}
	return q
}

// graph joins every relation for the orders selected by c. The order set is
// chosen in a sub-select so the cap and paging count orders, not lines.
func (r *orderQueryRepository) graph(ctx context.Context, c criteria, withPaging bool) *gorm.DB {
	selected := r.filtered(ctx, c).Select("o.id")
	if withPaging {
		selected = paged(selected, c.search)
	} else {
		selected = selected.Order("o.order_date, o.id").Limit(repositories.MaxOrderResults)
	}
	return r.db.WithContext(ctx).
		Table("orders o").
		Joins("JOIN members m ON m.id = o.member_id").
		Joins("JOIN deliveries d ON d.id = o.delivery_id").
		Joins("JOIN order_items oi ON oi.order_id = o.id").
		Joins("JOIN items i ON i.id = oi.item_id").
		Where("o.id IN (?)", selected)
}

func (r *orderQueryRepository) summaries(ctx context.Context, c criteria) ([]views.OrderSummary, error) {
	var rows []summaryRow
	err := paged(r.filtered(ctx, c).Joins("JOIN deliveries d ON d.id = o.delivery_id"), c.search).
		Select(summaryColumns).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query order summaries: %w", err)
	}
	out := make([]views.OrderSummary, len(rows))
	for i, row := range rows {
		out[i] = row.view()
	}
	return out, nil
}

// naive loads the orders in one statement and resolves every reference
// separately: the member and each item once per unit of work, the delivery
// and the line set once per order.
func (r *orderQueryRepository) naive(ctx context.Context, c criteria) ([]*models.Order, error) {
	db := r.db.WithContext(ctx)

	var recs []orderRecord
	if err := paged(r.filtered(ctx, c), c.search).Select("o.*").Scan(&recs).Error; err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}

	out := make([]*models.Order, 0, len(recs))
	for _, rec := range recs {
		if existing, ok := r.ids.orders[rec.ID]; ok {
			out = append(out, existing)
			continue
		}

		member, ok := r.ids.members[rec.MemberID]
		if !ok {
			var m memberRecord
			if err := db.Where("id = ?", rec.MemberID).Take(&m).Error; err != nil {
				return nil, notFound(err, shopdomain.ErrMemberNotFound, "order member")
			}
			member = r.ids.member(m)
		}

		delivery, ok := r.ids.deliveries[rec.DeliveryID]
		if !ok {
			var d deliveryRecord
			if err := db.Where("id = ?", rec.DeliveryID).Take(&d).Error; err != nil {
				return nil, fmt.Errorf("query delivery of order %s: %w", rec.ID, err)
			}
			delivery = r.ids.delivery(d)
		}

		var lineRecs []orderItemRecord
		if err := db.Where("order_id = ?", rec.ID).Order("position").Find(&lineRecs).Error; err != nil {
			return nil, fmt.Errorf("query lines of order %s: %w", rec.ID, err)
		}
		lines := make([]*models.OrderItem, 0, len(lineRecs))
		for _, l := range lineRecs {
			item, ok := r.ids.items[l.ItemID]
			if !ok {
				var i itemRecord
				if err := db.Where("id = ?", l.ItemID).Take(&i).Error; err != nil {
					return nil, notFound(err, shopdomain.ErrItemNotFound, "order item")
				}
				var err error
				if item, err = r.ids.item(i); err != nil {
					return nil, err
				}
			}
			lines = append(lines, models.RehydrateOrderItem(l.ID, item, l.OrderPrice, l.Count))
		}

		order := models.RehydrateOrder(rec.ID, member, delivery, rec.OrderDate, models.OrderStatus(rec.Status), lines...)
		r.ids.orders[rec.ID] = order
		out = append(out, order)
	}
	return out, nil
}

// joinToOne loads orders with member and delivery in one statement, then the
// lines of those orders in IN-list windows of batchSize order ids.
func (r *orderQueryRepository) joinToOne(ctx context.Context, c criteria) ([]*models.Order, error) {
	var headers []headerRow
	err := paged(r.filtered(ctx, c).Joins("JOIN deliveries d ON d.id = o.delivery_id"), c.search).
		Select(headerColumns).
		Scan(&headers).Error
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}

	var pending []uuid.UUID
	for _, h := range headers {
		if _, ok := r.ids.orders[h.OrderID]; !ok {
			pending = append(pending, h.OrderID)
		}
	}

	linesByOrder := make(map[uuid.UUID][]lineRow, len(pending))
	for start := 0; start < len(pending); start += r.batchSize {
		window := pending[start:min(start+r.batchSize, len(pending))]
		var lines []lineRow
		err := r.db.WithContext(ctx).
			Table("order_items oi").
			Joins("JOIN items i ON i.id = oi.item_id").
			Where("oi.order_id IN ?", window).
			Select(lineColumns).
			Order("oi.order_id, oi.position").
			Scan(&lines).Error
		if err != nil {
			return nil, fmt.Errorf("query order lines: %w", err)
		}
		for _, l := range lines {
			linesByOrder[l.LineOrderID] = append(linesByOrder[l.LineOrderID], l)
		}
	}

	out := make([]*models.Order, 0, len(headers))
	for _, h := range headers {
		order, err := r.assemble(h, linesByOrder[h.OrderID])
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, nil
}

// joinAll loads the whole graph in one statement. Each order appears once
// per line; rows are collapsed by order id keeping first-seen order.
func (r *orderQueryRepository) joinAll(ctx context.Context, c criteria) ([]*models.Order, error) {
	var rows []graphRow
	err := r.graph(ctx, c, false).
		Select(headerColumns + ", " + lineColumns).
		Order("o.order_date, o.id, oi.position").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query order graph: %w", err)
	}

	var headers []headerRow
	linesByOrder := make(map[uuid.UUID][]lineRow)
	for _, row := range rows {
		id := row.Header.OrderID
		if _, seen := linesByOrder[id]; !seen {
			headers = append(headers, row.Header)
		}
		linesByOrder[id] = append(linesByOrder[id], row.Line)
	}

	out := make([]*models.Order, 0, len(headers))
	for _, h := range headers {
		order, err := r.assemble(h, linesByOrder[h.OrderID])
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, nil
}

// assemble builds (or reuses) the aggregate for one header and its lines,
// routing every entity through the identity map.
func (r *orderQueryRepository) assemble(h headerRow, lines []lineRow) (*models.Order, error) {
	if existing, ok := r.ids.orders[h.OrderID]; ok {
		return existing, nil
	}

	member := r.ids.member(memberRecord{
		ID:        h.MemberID,
		Name:      h.MemberName,
		City:      h.MemberCity,
		Street:    h.MemberStreet,
		Zipcode:   h.MemberZipcode,
		CreatedAt: h.MemberCreatedAt,
	})
	delivery := r.ids.delivery(deliveryRecord{
		ID:      h.DeliveryID,
		City:    h.DeliveryCity,
		Street:  h.DeliveryStreet,
		Zipcode: h.DeliveryZipcode,
		Status:  h.DeliveryStatus,
	})

	orderItems := make([]*models.OrderItem, 0, len(lines))
	for _, l := range lines {
		item, err := r.ids.item(itemRecord{
			ID:            l.ItemID,
			Dtype:         l.ItemDtype,
			Name:          l.ItemName,
			Price:         l.ItemPrice,
			StockQuantity: l.ItemStockQuantity,
			Author:        l.ItemAuthor,
			ISBN:          l.ItemIsbn,
			Artist:        l.ItemArtist,
			Etc:           l.ItemEtc,
			Director:      l.ItemDirector,
			Actor:         l.ItemActor,
			CreatedAt:     l.ItemCreatedAt,
		})
		if err != nil {
			return nil, err
		}
		orderItems = append(orderItems, models.RehydrateOrderItem(l.LineID, item, l.LineOrderPrice, l.LineCount))
	}

	order := models.RehydrateOrder(h.OrderID, member, delivery, h.OrderDate, models.OrderStatus(h.OrderStatus), orderItems...)
	r.ids.orders[h.OrderID] = order
	return order, nil
}

// escapeLike escapes LIKE wildcards so the search term matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
