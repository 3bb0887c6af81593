package schema

// Keys of the built-in schemas.
const (
	Transactions = "transactions"
	Clients      = "clients"
	Customers    = "customers"
)

func init() {
	Register(TransactionSchema())
	Register(ClientSchema())
	Register(CustomerSchema())
}

// TransactionSchema describes bank statement lines. Headers must match the
// canonical names exactly, blank trailing rows are tolerated, and any row
// error fails the whole report.
func TransactionSchema() Schema {
	return Schema{
		Key:   Transactions,
		Label: "Financial Transactions",
		Fields: []Field{
			{Name: "description", Label: "Description", Rules: []Rule{Required(), MinLength(2)}},
			{Name: "bank", Label: "Bank name", Rules: []Rule{Required(), MinLength(2)}},
			{Name: "amount", Label: "Amount", Rules: []Rule{Required(), Decimal()}},
			{Name: "type", Label: "Type", Rules: []Rule{Required(), Enum("Credit", "Debit")}},
			{Name: "transaction_date", Label: "Transaction date", Rules: []Rule{Required(), Date()}},
		},
		Match:                MatchStrict,
		Policy:               FailOnRowErrors,
		ShortCircuitRequired: true,
		SkipBlankRows:        true,
	}
}

// contactFields is shared by the client and customer layouts.
func contactFields() []Field {
	return []Field{
		{
			Name:    "establishment_name",
			Label:   "Establishment Name",
			Aliases: []string{"company", "business", "organization", "firm", "establishment"},
			Rules:   []Rule{Required()},
		},
		{
			Name:    "employer_name",
			Label:   "Employer Name",
			Aliases: []string{"employer", "owner", "manager", "contact person", "contact", "name"},
			Rules:   []Rule{Required()},
		},
		{
			Name:    "email_id",
			Label:   "Email ID",
			Aliases: []string{"email", "e-mail", "mail", "email address"},
			Rules:   []Rule{Required(), Email()},
		},
		{
			Name:    "mobile_number",
			Label:   "Mobile number",
			Aliases: []string{"mobile", "phone", "contact", "number", "telephone"},
			Rules:   []Rule{Required(), Digits()},
		},
	}
}

// ClientSchema describes client service records.
func ClientSchema() Schema {
	return Schema{
		Key:    Clients,
		Label:  "Clients",
		Fields: contactFields(),
		Match:  MatchFuzzy,
		Policy: SuccessIfResolved,
	}
}

// CustomerSchema describes customer records. Same layout as clients.
func CustomerSchema() Schema {
	return Schema{
		Key:    Customers,
		Label:  "Customers",
		Fields: contactFields(),
		Match:  MatchFuzzy,
		Policy: SuccessIfResolved,
	}
}
