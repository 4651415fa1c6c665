package application

import (
	"context"
	"fmt"
	"time"

	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/hill399/linkedBtc/internal/core/ports"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

func publishAlert(alerts ports.Alerts, topic ports.Topic, message any) {
	if alerts == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := alerts.Publish(ctx, topic, message); err != nil {
		log.WithError(err).WithField("topic", topic).Warn("failed to publish alert")
	}
}

func getWithdrawalStats(w domain.Withdrawal, totalBalance uint64) ports.WithdrawalAlert {
	age := "N/A"
	if w.CreatedAt > 0 && w.UpdatedAt >= w.CreatedAt {
		age = time.Unix(w.UpdatedAt, 0).Sub(time.Unix(w.CreatedAt, 0)).String()
	}

	exposure := "N/A"
	if totalBalance > 0 {
		tot := decimal.NewFromUint64(totalBalance + w.Amount)
		amount := decimal.NewFromUint64(w.Amount)
		exposure = fmt.Sprintf(
			"%s%%", amount.Div(tot).Mul(decimal.NewFromInt(100)).StringFixed(2),
		)
	}

	return ports.WithdrawalAlert{
		Id:          w.Id,
		Owner:       w.Owner,
		Destination: w.Destination,
		Amount:      w.Amount,
		Status:      w.Status.String(),
		Txid:        w.Txid,
		SettledBy:   w.SettledBy,
		Requests:    len(w.RequestIds),
		Failed:      len(w.Failed),
		Age:         age,
		Exposure:    exposure,
	}
}
