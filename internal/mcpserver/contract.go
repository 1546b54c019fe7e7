package mcpserver

// LifecycleContract describes the book status lifecycle that LLM
// consumers must respect when changing a book's status.
const LifecycleContract = `# Shelfmark Status Lifecycle Contract

Every book on the shelf is in exactly one status:

- ` + "`" + `wishlist` + "`" + ` — want to read (the default for new books)
- ` + "`" + `reading` + "`" + ` — currently reading
- ` + "`" + `completed` + "`" + ` — finished
- ` + "`" + `dropped` + "`" + ` — abandoned

## Allowed transitions

` + "```" + `
wishlist  -> reading
reading   -> completed | dropped | wishlist
completed -> wishlist
dropped   -> reading | wishlist
` + "```" + `

Any other move is rejected. Setting the current status again is also
rejected.

## Rules

1. **Completing requires a rating.** ` + "`" + `update_status` + "`" + ` to ` + "`" + `completed` + "`" + ` must
   include a non-empty ` + "`" + `rating_tag` + "`" + ` (e.g. ` + "`" + `loved-it` + "`" + `, ` + "`" + `fine` + "`" + `, ` + "`" + `dnf-worthy` + "`" + `).
2. **Rated books cannot be dropped.** Once a book has ever been completed
   its rating tag is permanent, and moving it to ` + "`" + `dropped` + "`" + ` is refused.
   Re-reads go through ` + "`" + `wishlist` + "`" + ` -> ` + "`" + `reading` + "`" + ` -> ` + "`" + `completed` + "`" + ` again.
3. **Dates are ISO dates** (` + "`" + `2006-01-02` + "`" + `). A started date later than the
   completed date is rejected. Omit ` + "`" + `date` + "`" + ` to keep existing dates.
4. **Reviews need an active book.** Reviews cannot be attached to a book
   that is still on the wishlist. Each review records the book's status
   at the time it was written.
`
