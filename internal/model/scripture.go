package model

// Scripture is a text in the catalog, grouped by category.
type Scripture struct {
    ID            uint64  // scriptures.id
    Title         string  // scriptures.title
    Category      string  // scriptures.category
    Description   *string // scriptures.description (nullable)
    TotalChapters uint32  // scriptures.total_chapters
}

// Chapter is one readable part of a scripture.
type Chapter struct {
    ID          uint64 // chapters.id
    ScriptureID uint64 // chapters.scripture_id
    ChapterNo   uint32 // chapters.chapter_no
    Title       string // chapters.title
    Content     string // chapters.content
}
