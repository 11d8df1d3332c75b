package refund

import (
	"strconv"

	"github.com/mstgnz/brqpay/gateway"
	"github.com/mstgnz/brqpay/order"
	"github.com/shopspring/decimal"
)

type articleShape int

const (
	shapeNone articleShape = iota
	// shapeTaxCategory is the legacy afterpay shape
	shapeTaxCategory
	shapeVAT
)

const articleGroup = "Article"

// article is one refunded line before it is rendered into a shape
type article struct {
	id          string
	description string
	quantity    int
	unitPrice   decimal.Decimal
	vatRate     decimal.Decimal
}

func (b *Builder) shape(service string) articleShape {
	switch service {
	case "afterpay":
		if b.cfg.AfterpayLegacy {
			return shapeTaxCategory
		}
		return shapeVAT
	case "billink", "klarnakp":
		return shapeVAT
	}
	return shapeNone
}

func (b *Builder) addArticles(service *gateway.Service, data RefundData) error {
	shape := b.shape(service.Name)
	if shape == shapeNone {
		return nil
	}

	articles, err := refundArticles(data)
	if err != nil {
		return err
	}
	for i, a := range articles {
		groupID := strconv.Itoa(i + 1)
		if shape == shapeTaxCategory {
			service.AddArticle("", groupID, a.taxCategoryFields())
		} else {
			service.AddArticle(articleGroup, groupID, a.vatFields())
		}
	}
	return nil
}

// refundArticles lists the refunded lines in order line sequence. Without item quantities a
// single line carries the whole amount.
func refundArticles(data RefundData) ([]article, error) {
	if len(data.Items) == 0 {
		return []article{{
			id:          "1",
			description: "Refund",
			quantity:    1,
			unitPrice:   data.Amount,
			vatRate:     decimal.Zero,
		}}, nil
	}

	o := data.Order
	for id, qty := range data.Items {
		item, ok := o.LineItem(id)
		if !ok {
			return nil, order.NewIntegrityError(order.ErrCodeInvalidRefundTarget, "order %s has no line item %s", o.ID, id)
		}
		if qty < 0 || qty > item.Quantity {
			return nil, order.NewIntegrityError(order.ErrCodeInvalidRefundTarget,
				"line item %s: cannot refund %d of %d", id, qty, item.Quantity)
		}
	}

	var articles []article
	for _, item := range o.LineItems {
		qty := data.Items[item.ID]
		if qty == 0 {
			continue
		}
		articles = append(articles, article{
			id:          item.ID,
			description: item.Label,
			quantity:    qty,
			unitPrice:   item.UnitPrice,
			vatRate:     item.TaxRate,
		})
	}
	return articles, nil
}

func (a article) vatFields() []gateway.Parameter {
	return []gateway.Parameter{
		{Name: "Identifier", Value: a.id},
		{Name: "Description", Value: a.description},
		{Name: "Quantity", Value: strconv.Itoa(a.quantity)},
		{Name: "GrossUnitPrice", Value: a.unitPrice.StringFixed(2)},
		{Name: "VatPercentage", Value: a.vatRate.String()},
	}
}

func (a article) taxCategoryFields() []gateway.Parameter {
	return []gateway.Parameter{
		{Name: "ArticleId", Value: a.id},
		{Name: "ArticleDescription", Value: a.description},
		{Name: "ArticleQuantity", Value: strconv.Itoa(a.quantity)},
		{Name: "ArticleUnitprice", Value: a.unitPrice.StringFixed(2)},
		{Name: "ArticleVatcategory", Value: strconv.Itoa(vatCategory(a.vatRate))},
	}
}

// vatCategory maps a tax rate to the legacy category: 1 high, 2 low, 3 zero
func vatCategory(rate decimal.Decimal) int {
	switch {
	case rate.GreaterThanOrEqual(decimal.NewFromInt(20)):
		return 1
	case rate.IsPositive():
		return 2
	}
	return 3
}
