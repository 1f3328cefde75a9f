package projector

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/feral-file/flightstake-indexer/internal/domain"
)

// transfer moves ownership and mints the ticket on first sight
func (p *Projector) transfer(state domain.TicketState, ev *domain.Event) (*domain.Delta, error) {
	tokenID, err := TokenID(ev)
	if err != nil {
		return nil, err
	}
	from, err := addressArg(ev, "from")
	if err != nil {
		return nil, err
	}
	to, err := addressArg(ev, "to")
	if err != nil {
		return nil, err
	}

	ticket := domain.Ticket{
		TokenID: tokenID,
		Status:  domain.TicketStatusIdle,
		Price:   decimal.Zero,
	}
	if state.Ticket != nil {
		ticket = *state.Ticket
	}
	ticket.OwnerAddress = to

	users := []string{to}
	txType := domain.TransactionTypeMint
	if from != domain.ETHEREUM_ZERO_ADDRESS {
		users = append(users, from)
		txType = domain.TransactionTypeTransfer
	}

	tx, err := p.transaction(ev, txType, to, tokenID, nil)
	if err != nil {
		return nil, err
	}

	return &domain.Delta{
		TokenID:     tokenID,
		Ticket:      &ticket,
		Users:       users,
		Transaction: tx,
	}, nil
}

func (p *Projector) tokenStaked(state domain.TicketState, ev *domain.Event) (*domain.Delta, error) {
	return p.statusChange(state, ev, "user", domain.TicketStatusStaked, domain.TransactionTypeStake, "value")
}

func (p *Projector) tokenUnstaked(state domain.TicketState, ev *domain.Event) (*domain.Delta, error) {
	return p.statusChange(state, ev, "user", domain.TicketStatusIdle, domain.TransactionTypeUnstake, "")
}

func (p *Projector) collateralDeposited(state domain.TicketState, ev *domain.Event) (*domain.Delta, error) {
	return p.statusChange(state, ev, "user", domain.TicketStatusCollateralized, domain.TransactionTypeDeposit, "value")
}

func (p *Projector) collateralWithdrawn(state domain.TicketState, ev *domain.Event) (*domain.Delta, error) {
	return p.statusChange(state, ev, "user", domain.TicketStatusIdle, domain.TransactionTypeWithdraw, "")
}

// statusChange sets the ticket status and records a transaction for actorArg.
// amountArg names the argument carrying the amount, empty when there is none.
// An active listing is closed since the ticket leaves LISTED.
func (p *Projector) statusChange(state domain.TicketState, ev *domain.Event, actorArg string,
	status domain.TicketStatus, txType domain.TransactionType, amountArg string) (*domain.Delta, error) {
	tokenID, err := TokenID(ev)
	if err != nil {
		return nil, err
	}
	actor, err := addressArg(ev, actorArg)
	if err != nil {
		return nil, err
	}
	ticket, err := requireTicket(state, tokenID)
	if err != nil {
		return nil, err
	}

	var amount *decimal.Decimal
	if amountArg != "" {
		if amount, err = p.amount(ev, amountArg); err != nil {
			return nil, err
		}
	}

	ticket.Status = status

	tx, err := p.transaction(ev, txType, actor, tokenID, amount)
	if err != nil {
		return nil, err
	}

	return &domain.Delta{
		TokenID:       tokenID,
		Ticket:        ticket,
		Users:         []string{actor},
		DeleteListing: state.Listing != nil,
		Transaction:   tx,
	}, nil
}

// itemListed opens a listing. A replay of the listing that is already active
// writes nothing new, any other active listing is a conflict.
func (p *Projector) itemListed(state domain.TicketState, ev *domain.Event) (*domain.Delta, error) {
	tokenID, err := TokenID(ev)
	if err != nil {
		return nil, err
	}
	seller, err := addressArg(ev, "seller")
	if err != nil {
		return nil, err
	}
	price, err := bigArg(ev, "price")
	if err != nil {
		return nil, err
	}
	ticket, err := requireTicket(state, tokenID)
	if err != nil {
		return nil, err
	}

	var listing *domain.Listing
	if existing := state.Listing; existing != nil {
		if existing.SellerAddress != seller || !existing.Price.Equal(decimal.NewFromBigInt(price, 0)) {
			return nil, fmt.Errorf("%w: token %d listed by %s at %s",
				domain.ErrListingConflict, tokenID, existing.SellerAddress, existing.Price)
		}
	} else {
		listing = &domain.Listing{
			TokenID:       tokenID,
			SellerAddress: seller,
			Price:         decimal.NewFromBigInt(price, 0),
		}
	}

	ticket.Status = domain.TicketStatusListed

	amount := p.units(price)
	tx, err := p.transaction(ev, domain.TransactionTypeList, seller, tokenID, &amount)
	if err != nil {
		return nil, err
	}

	return &domain.Delta{
		TokenID:       tokenID,
		Ticket:        ticket,
		Users:         []string{seller},
		CreateListing: listing,
		Transaction:   tx,
	}, nil
}

func (p *Projector) itemCanceled(state domain.TicketState, ev *domain.Event) (*domain.Delta, error) {
	tokenID, err := TokenID(ev)
	if err != nil {
		return nil, err
	}
	seller, err := addressArg(ev, "seller")
	if err != nil {
		return nil, err
	}
	ticket, err := requireTicket(state, tokenID)
	if err != nil {
		return nil, err
	}

	ticket.Status = domain.TicketStatusIdle

	tx, err := p.transaction(ev, domain.TransactionTypeCancel, seller, tokenID, nil)
	if err != nil {
		return nil, err
	}

	return &domain.Delta{
		TokenID:       tokenID,
		Ticket:        ticket,
		Users:         []string{seller},
		DeleteListing: true,
		Transaction:   tx,
	}, nil
}

// itemSold closes the listing. The owner is left alone, the registry emits
// the matching Transfer.
func (p *Projector) itemSold(state domain.TicketState, ev *domain.Event) (*domain.Delta, error) {
	tokenID, err := TokenID(ev)
	if err != nil {
		return nil, err
	}
	seller, err := addressArg(ev, "seller")
	if err != nil {
		return nil, err
	}
	buyer, err := addressArg(ev, "buyer")
	if err != nil {
		return nil, err
	}
	amount, err := p.amount(ev, "price")
	if err != nil {
		return nil, err
	}
	ticket, err := requireTicket(state, tokenID)
	if err != nil {
		return nil, err
	}

	ticket.Status = domain.TicketStatusIdle

	tx, err := p.transaction(ev, domain.TransactionTypeSale, buyer, tokenID, amount)
	if err != nil {
		return nil, err
	}

	return &domain.Delta{
		TokenID:       tokenID,
		Ticket:        ticket,
		Users:         []string{buyer, seller},
		DeleteListing: true,
		Transaction:   tx,
	}, nil
}

// priceUpdated only touches the price, it is not part of the history
func (p *Projector) priceUpdated(state domain.TicketState, ev *domain.Event) (*domain.Delta, error) {
	tokenID, err := TokenID(ev)
	if err != nil {
		return nil, err
	}
	price, err := bigArg(ev, "price")
	if err != nil {
		return nil, err
	}
	if price.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative price %s", domain.ErrMalformedPayload, price)
	}
	ticket, err := requireTicket(state, tokenID)
	if err != nil {
		return nil, err
	}

	ticket.Price = decimal.NewFromBigInt(price, 0)

	return &domain.Delta{
		TokenID: tokenID,
		Ticket:  ticket,
	}, nil
}

func requireTicket(state domain.TicketState, tokenID uint64) (*domain.Ticket, error) {
	if state.Ticket == nil {
		return nil, fmt.Errorf("%w: %d", domain.ErrTicketNotFound, tokenID)
	}
	ticket := *state.Ticket
	return &ticket, nil
}

func (p *Projector) amount(ev *domain.Event, name string) (*decimal.Decimal, error) {
	v, err := bigArg(ev, name)
	if err != nil {
		return nil, err
	}
	scaled := p.units(v)
	return &scaled, nil
}

// units scales a smallest-unit integer to display units
func (p *Projector) units(v *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(v, -int32(p.decimals))
}

func (p *Projector) transaction(ev *domain.Event, txType domain.TransactionType, user string, tokenID uint64, amount *decimal.Decimal) (*domain.Transaction, error) {
	raw, err := ev.ArgsJSON()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}

	return &domain.Transaction{
		Hash:        ev.TxHash,
		Type:        txType,
		UserAddress: user,
		TokenID:     tokenID,
		Amount:      amount,
		Timestamp:   ev.Timestamp,
		Raw:         raw,
	}, nil
}
