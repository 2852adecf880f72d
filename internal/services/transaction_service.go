package services

import (
	"bytes"
	"driveet-backend/internal/database"
	"driveet-backend/internal/models"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// TransactionFilter defines criteria for filtering transactions
type TransactionFilter struct {
	UserID       *uint
	UserBundleID *uint
	Type         *models.TransactionType
	Resource     *models.ResourceKind
	StartTime    *time.Time
	EndTime      *time.Time
	Page         int
	Limit        int
}

// maxExportRows bounds a single CSV export.
const maxExportRows = 10000

func transactionQuery(filter TransactionFilter) *gorm.DB {
	query := database.DB.Model(&models.ResourceTransaction{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.UserBundleID != nil {
		query = query.Where("user_bundle_id = ?", *filter.UserBundleID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Resource != nil {
		query = query.Where("resource = ?", *filter.Resource)
	}
	if filter.StartTime != nil {
		query = query.Where("created_at >= ?", *filter.StartTime)
	}
	if filter.EndTime != nil {
		query = query.Where("created_at <= ?", *filter.EndTime)
	}
	return query
}

// FindTransactions retrieves a paginated list of transactions with filtering
func FindTransactions(filter TransactionFilter) ([]models.ResourceTransaction, int64, error) {
	var transactions []models.ResourceTransaction
	var total int64

	if err := transactionQuery(filter).Count(&total).Error; err != nil {
		return nil, 0, internalError("count transactions", err)
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	if err := transactionQuery(filter).Order("created_at desc, id desc").Limit(limit).Offset((page - 1) * limit).Find(&transactions).Error; err != nil {
		return nil, 0, internalError("find transactions", err)
	}

	return transactions, total, nil
}

// ExportTransactions returns every matching row up to maxExportRows, oldest first.
func ExportTransactions(filter TransactionFilter) ([]models.ResourceTransaction, error) {
	var transactions []models.ResourceTransaction
	if err := transactionQuery(filter).Order("id asc").Limit(maxExportRows).Find(&transactions).Error; err != nil {
		return nil, internalError("export transactions", err)
	}
	return transactions, nil
}

// GenerateTransactionCSV generates a CSV file content for transactions
func GenerateTransactionCSV(transactions []models.ResourceTransaction) ([]byte, error) {
	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	header := []string{
		"ID", "Time", "User ID", "Bundle ID", "Type", "Resource", "Quantity",
		"Exams Before", "Exams After", "Chats Before", "Chats After",
		"Search Before", "Search After", "Daily Chats Before", "Daily Chats After",
		"Reference", "Description", "Operator", "IP Address", "User Agent", "Hash",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, t := range transactions {
		record := []string{
			strconv.FormatUint(uint64(t.ID), 10),
			t.CreatedAt.Format(time.RFC3339Nano),
			strconv.FormatUint(uint64(t.UserID), 10),
			strconv.FormatUint(uint64(t.UserBundleID), 10),
			string(t.Type),
			string(t.Resource),
			strconv.Itoa(t.Quantity),
			strconv.Itoa(t.Before.Exams),
			strconv.Itoa(t.After.Exams),
			strconv.Itoa(t.Before.Chats),
			strconv.Itoa(t.After.Chats),
			strconv.Itoa(t.Before.Search),
			strconv.Itoa(t.After.Search),
			strconv.Itoa(t.Before.DailyChats),
			strconv.Itoa(t.After.DailyChats),
			t.Reference,
			t.Description,
			t.Operator,
			t.IPAddress,
			t.UserAgent,
			t.Hash,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// LedgerIssue describes one inconsistency found while replaying a ledger.
type LedgerIssue struct {
	TransactionID uint   `json:"transaction_id,omitempty"`
	Problem       string `json:"problem"`
}

// LedgerReport is the result of replaying one bundle's transactions.
type LedgerReport struct {
	BundleID     uint          `json:"bundle_id"`
	Transactions int           `json:"transactions"`
	Valid        bool          `json:"valid"`
	Issues       []LedgerIssue `json:"issues"`
}

// VerifyBundleLedger replays a bundle's transactions in insertion order. Each
// row must start from the previous row's after-snapshot and carry a valid
// hash, and the last after-snapshot must equal the live counters.
func VerifyBundleLedger(bundleID uint) (*LedgerReport, error) {
	var bundle models.UserBundle
	if err := database.DB.First(&bundle, bundleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "bundle %d not found", bundleID)
		}
		return nil, internalError("load bundle", err)
	}

	var rows []models.ResourceTransaction
	if err := database.DB.Where("user_bundle_id = ?", bundleID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, internalError("load ledger", err)
	}

	report := &LedgerReport{BundleID: bundleID, Transactions: len(rows), Issues: []LedgerIssue{}}
	secret := currentSettings().LedgerSecret

	var previous models.BalanceSnapshot
	for i := range rows {
		row := &rows[i]
		if i == 0 && row.Type != models.TransactionTypePurchase {
			report.Issues = append(report.Issues, LedgerIssue{TransactionID: row.ID, Problem: "ledger does not start with a purchase"})
		}
		if row.Before != previous {
			report.Issues = append(report.Issues, LedgerIssue{
				TransactionID: row.ID,
				Problem:       fmt.Sprintf("before snapshot %+v does not match previous after %+v", row.Before, previous),
			})
		}
		if row.Hash != row.GenerateHash(secret) {
			report.Issues = append(report.Issues, LedgerIssue{TransactionID: row.ID, Problem: "hash mismatch"})
		}
		previous = row.After
	}

	if len(rows) == 0 {
		report.Issues = append(report.Issues, LedgerIssue{Problem: "bundle has no transactions"})
	} else if live := bundle.Snapshot(); live != previous {
		report.Issues = append(report.Issues, LedgerIssue{
			Problem: fmt.Sprintf("live counters %+v do not match ledger %+v", live, previous),
		})
	}

	report.Valid = len(report.Issues) == 0
	return report, nil
}
