package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	appcfg "ductclean/internal/config"
	"ductclean/internal/models"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/rs/zerolog"
)

var (
	ErrMissingAccessToken = errors.New("missing mercado pago access token")
	ErrPaymentRejected    = errors.New("payment rejected")
)

// MercadoPagoGateway charges invoices through the Mercado Pago SDK. In
// mock mode (local development, tests) charges are approved without
// touching the network.
type MercadoPagoGateway struct {
	client   payment.Client
	mockMode bool
	logger   *zerolog.Logger
}

func NewMercadoPagoGateway(cfg appcfg.PaymentsConfig, logger *zerolog.Logger) (*MercadoPagoGateway, error) {
	if cfg.MockMode {
		logger.Info().Msg("payment gateway running in mock mode")
		return &MercadoPagoGateway{mockMode: true, logger: logger}, nil
	}
	if cfg.MercadoPagoToken == "" {
		return nil, ErrMissingAccessToken
	}

	sdkCfg, err := mpconfig.New(cfg.MercadoPagoToken)
	if err != nil {
		return nil, fmt.Errorf("create mercado pago config: %w", err)
	}

	logger.Info().Msg("mercado pago client initialized")
	return &MercadoPagoGateway{client: payment.NewClient(sdkCfg), logger: logger}, nil
}

func (g *MercadoPagoGateway) Charge(ctx context.Context, invoice *models.Invoice, payerEmail string) (string, error) {
	if g.mockMode {
		ref := "mock-" + strconv.FormatInt(time.Now().UTC().UnixNano(), 10)
		g.logger.Info().Str("invoice_id", invoice.ID).Str("payment_ref", ref).Msg("mock charge approved")
		return ref, nil
	}

	req := payment.Request{
		TransactionAmount: invoice.Total.Dollars(),
		Description:       fmt.Sprintf("DuctClean invoice %s", invoice.ID),
		ExternalReference: invoice.ID,
		Payer: &payment.PayerRequest{
			Email: payerEmail,
		},
	}

	resp, err := g.client.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("mercado pago create payment: %w", err)
	}
	if resp.Status != "approved" {
		return "", fmt.Errorf("%w: status %s (%s)", ErrPaymentRejected, resp.Status, resp.StatusDetail)
	}

	ref := fmt.Sprintf("%d", resp.ID)
	g.logger.Info().Str("invoice_id", invoice.ID).Str("payment_ref", ref).Msg("charge approved")
	return ref, nil
}
