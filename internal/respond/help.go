package respond

// HelpText is the response to the help verb.
const HelpText = `I am a community currency tracker. I record payments and withdrawals per channel account.

### basic commands:

` + "`help`" + `
	print this help message

` + "`pay <account> <value>`" + `
	add a payment from you to <account> of <value>.

` + "`withdraw <account> <value>`" + `
	deduct <value> from <account> (only available to the account's owning role).

### account management commands:

` + "`account-create <account> <role>`" + `
	create an account named <account>, managed by <role>.

` + "`account-delete <account>`" + `
	delete <account> and all of its records (owning role only).

` + "`account-reset <account>`" + `
	clear the transaction records of <account>, keeping its owning role (owning role only).

` + "`account-balance <account>`" + `
	display the current balance of <account> (owning role only).

` + "`account-summary <account>`" + `
	print per-contributor totals and the withdrawn total for <account> (owning role only).

` + "`account-all <account>`" + `
	print every transaction of <account> as comma-separated values (owning role only).

` + "`last <account>`" + `
	print the most recent transaction of <account> (owning role only).
`
