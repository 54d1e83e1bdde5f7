package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sample OFX data for testing.
const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-15.99
<FITID>2024011501
<NAME>NETFLIX.COM 866-579-7172
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125.00
<FITID>2024012001
<NAME>Whole Foods Market
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>2500.00
<FITID>2024012501
<NAME>PAYROLL DEPOSIT
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestParseFileBankStatement(t *testing.T) {
	parser := NewParser()

	transactions, err := parser.ParseFile(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, transactions, 3)

	netflix := transactions[0]
	assert.Equal(t, "2024011501", netflix.ID)
	assert.Equal(t, "NETFLIX.COM 866-579-7172", netflix.Name)
	assert.Equal(t, "Netflix", netflix.MerchantName)
	assert.Equal(t, "1234567890", netflix.AccountID)
	assert.NotEmpty(t, netflix.Hash)

	// Debits stay negative; the posted timestamp truncates to a UTC day.
	assert.True(t, netflix.Amount.Equal(decimal.RequireFromString("-15.99")))
	assert.True(t, netflix.IsExpense())
	assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), netflix.Date)

	deposit := transactions[2]
	assert.True(t, deposit.Amount.Equal(decimal.RequireFromString("2500.00")))
	assert.False(t, deposit.IsExpense())
}

func TestParseFileLowercaseSeverity(t *testing.T) {
	// Some banks emit <SEVERITY>Info</SEVERITY>, which strict parsers
	// reject without preprocessing.
	fixed := strings.ReplaceAll(sampleBankOFX, "<SEVERITY>INFO", "<SEVERITY>Info</SEVERITY>")

	parser := NewParser()
	transactions, err := parser.ParseFile(context.Background(), strings.NewReader(fixed))
	require.NoError(t, err)
	assert.Len(t, transactions, 3)
}

func TestParseFileLeadingWhitespace(t *testing.T) {
	parser := NewParser()
	transactions, err := parser.ParseFile(context.Background(), strings.NewReader("\n\n  "+sampleBankOFX))
	require.NoError(t, err)
	assert.Len(t, transactions, 3)
}

func TestParseFileInvalidContent(t *testing.T) {
	parser := NewParser()
	_, err := parser.ParseFile(context.Background(), strings.NewReader("this is not an OFX file"))
	require.Error(t, err)
}

func TestParseFileCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	parser := NewParser()
	_, err := parser.ParseFile(ctx, strings.NewReader(sampleBankOFX))
	require.Error(t, err)
}

func TestHashStableAcrossReparse(t *testing.T) {
	parser := NewParser()

	first, err := parser.ParseFile(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	second, err := parser.ParseFile(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Hash, second[i].Hash)
	}
}
