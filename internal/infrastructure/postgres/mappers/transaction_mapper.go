package mappers

import (
	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/postgres/models"
)

func ToDomainTransaction(model *models.TransactionModel) *domain.Transaction {
	return &domain.Transaction{
		ID:          model.ID,
		InvoiceID:   model.InvoiceID,
		MoneyAmount: model.MoneyAmount,
		Type:        model.Type,
		Status:      model.Status,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func ToGORMTransaction(tr *domain.Transaction) *models.TransactionModel {
	return &models.TransactionModel{
		ID:          tr.ID,
		InvoiceID:   tr.InvoiceID,
		MoneyAmount: tr.MoneyAmount,
		Type:        tr.Type,
		Status:      tr.Status,
		CreatedAt:   tr.CreatedAt,
		UpdatedAt:   tr.UpdatedAt,
	}
}

func ToDomainTransactionStatusChange(model *models.TransactionStatusChangeModel) *domain.TransactionStatusChange {
	return &domain.TransactionStatusChange{
		ID:            model.ID,
		TransactionID: model.TransactionID,
		FromStatus:    model.FromStatus,
		ToStatus:      model.ToStatus,
		Details:       detailsFromJSON(model.Details),
		CreatedAt:     model.CreatedAt,
	}
}

func ToGORMTransactionStatusChange(change *domain.TransactionStatusChange) *models.TransactionStatusChangeModel {
	return &models.TransactionStatusChangeModel{
		ID:            change.ID,
		TransactionID: change.TransactionID,
		FromStatus:    change.FromStatus,
		ToStatus:      change.ToStatus,
		Details:       detailsToJSON(change.Details),
		CreatedAt:     change.CreatedAt,
	}
}

func ToDomainCloudPayments(base *models.TransactionModel, ext *models.CloudPaymentsTransactionModel) *domain.CloudPaymentsTransaction {
	return &domain.CloudPaymentsTransaction{
		Transaction:       *ToDomainTransaction(base),
		ProviderTxID:      ext.ProviderTxID,
		Amount:            ext.Amount,
		Currency:          ext.Currency,
		DateTime:          ext.DateTime,
		CardFirstSix:      ext.CardFirstSix,
		CardLastFour:      ext.CardLastFour,
		CardType:          ext.CardType,
		CardExpDate:       ext.CardExpDate,
		TestMode:          ext.TestMode,
		ProviderStatus:    ext.ProviderStatus,
		OperationType:     ext.OperationType,
		AccountID:         ext.AccountID,
		SubscriptionID:    ext.SubscriptionID,
		TokenRecipient:    ext.TokenRecipient,
		Name:              ext.Name,
		Email:             ext.Email,
		IPAddress:         ext.IPAddress,
		IPCountry:         ext.IPCountry,
		IPCity:            ext.IPCity,
		IPRegion:          ext.IPRegion,
		IPDistrict:        ext.IPDistrict,
		Issuer:            ext.Issuer,
		IssuerBankCountry: ext.IssuerBankCountry,
		Description:       ext.Description,
		GatewayName:       ext.GatewayName,
		Token:             ext.Token,
		TotalFee:          ext.TotalFee,
	}
}

func ToGORMCloudPayments(tr *domain.CloudPaymentsTransaction) *models.CloudPaymentsTransactionModel {
	return &models.CloudPaymentsTransactionModel{
		TransactionID:     tr.ID,
		ProviderTxID:      tr.ProviderTxID,
		Amount:            tr.Amount,
		Currency:          tr.Currency,
		DateTime:          tr.DateTime,
		CardFirstSix:      tr.CardFirstSix,
		CardLastFour:      tr.CardLastFour,
		CardType:          tr.CardType,
		CardExpDate:       tr.CardExpDate,
		TestMode:          tr.TestMode,
		ProviderStatus:    tr.ProviderStatus,
		OperationType:     tr.OperationType,
		AccountID:         tr.AccountID,
		SubscriptionID:    tr.SubscriptionID,
		TokenRecipient:    tr.TokenRecipient,
		Name:              tr.Name,
		Email:             tr.Email,
		IPAddress:         tr.IPAddress,
		IPCountry:         tr.IPCountry,
		IPCity:            tr.IPCity,
		IPRegion:          tr.IPRegion,
		IPDistrict:        tr.IPDistrict,
		Issuer:            tr.Issuer,
		IssuerBankCountry: tr.IssuerBankCountry,
		Description:       tr.Description,
		GatewayName:       tr.GatewayName,
		Token:             tr.Token,
		TotalFee:          tr.TotalFee,
	}
}

func ToDomainWalletOne(base *models.TransactionModel, ext *models.WalletOneTransactionModel) *domain.WalletOneTransaction {
	return &domain.WalletOneTransaction{
		Transaction:       *ToDomainTransaction(base),
		OrderID:           ext.OrderID,
		MerchantID:        ext.MerchantID,
		PaymentAmount:     ext.PaymentAmount,
		CommissionAmount:  ext.CommissionAmount,
		CurrencyID:        ext.CurrencyID,
		ToUserID:          ext.ToUserID,
		PaymentNo:         ext.PaymentNo,
		Description:       ext.Description,
		SuccessURL:        ext.SuccessURL,
		FailURL:           ext.FailURL,
		ExpiredDate:       ext.ExpiredDate,
		CreateDate:        ext.CreateDate,
		UpdateDate:        ext.UpdateDate,
		OrderState:        ext.OrderState,
		NotifyCount:       ext.NotifyCount,
		ExternalAccountID: ext.ExternalAccountID,
		AutoAccept:        ext.AutoAccept,
		LastNotifyDate:    ext.LastNotifyDate,
		InvoiceOperations: ext.InvoiceOperations,
		PaymentType:       ext.PaymentType,
	}
}

func ToGORMWalletOne(tr *domain.WalletOneTransaction) *models.WalletOneTransactionModel {
	return &models.WalletOneTransactionModel{
		TransactionID:     tr.ID,
		OrderID:           tr.OrderID,
		MerchantID:        tr.MerchantID,
		PaymentAmount:     tr.PaymentAmount,
		CommissionAmount:  tr.CommissionAmount,
		CurrencyID:        tr.CurrencyID,
		ToUserID:          tr.ToUserID,
		PaymentNo:         tr.PaymentNo,
		Description:       tr.Description,
		SuccessURL:        tr.SuccessURL,
		FailURL:           tr.FailURL,
		ExpiredDate:       tr.ExpiredDate,
		CreateDate:        tr.CreateDate,
		UpdateDate:        tr.UpdateDate,
		OrderState:        tr.OrderState,
		NotifyCount:       tr.NotifyCount,
		ExternalAccountID: tr.ExternalAccountID,
		AutoAccept:        tr.AutoAccept,
		LastNotifyDate:    tr.LastNotifyDate,
		InvoiceOperations: tr.InvoiceOperations,
		PaymentType:       tr.PaymentType,
	}
}

func ToDomainCallbackTask(model *models.CallbackTaskModel) *domain.CallbackTask {
	return &domain.CallbackTask{
		ID:        model.ID,
		InvoiceID: model.InvoiceID,
		Callback:  model.Callback,
		Status:    model.Status,
		Attempts:  model.Attempts,
		LastError: model.LastError,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func ToGORMCallbackTask(task *domain.CallbackTask) *models.CallbackTaskModel {
	return &models.CallbackTaskModel{
		ID:        task.ID,
		InvoiceID: task.InvoiceID,
		Callback:  task.Callback,
		Status:    task.Status,
		Attempts:  task.Attempts,
		LastError: task.LastError,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
}
