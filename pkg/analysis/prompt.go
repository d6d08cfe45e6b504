package analysis

// SystemPrompt establishes the listing-extraction domain and the JSON-only contract
const SystemPrompt = `You are an expert at analyzing trading cards, sports cards, collectibles and other physical products for eBay listings. Extract all visible information from the image. Respond with JSON only: no markdown, no code fences, no commentary.`

// UserPrompt names the exact JSON shape expected back
const UserPrompt = `Analyze this product image and provide:
1. A compelling eBay listing title (60-80 chars, include: year, brand, player/character name, card or model number, condition indicators if visible, any special features like "Rookie", "Holo", "1st Edition", etc.)
2. Extract ALL visible details:
   - Brand/Manufacturer
   - Year/Copyright
   - Set/Series name
   - Card or model number
   - Series number
   - Primary color
   - Player/Character/Item name
   - Team (if applicable)
   - Special features (holographic, parallel, insert, limited, etc.)
   - Visible condition issues
   - Any other text on the item

Use null for anything that is not visible. Format the response as JSON:
{
  "title": "eBay listing title here",
  "details": {
    "brand": "...",
    "year": "...",
    "setName": "...",
    "cardNumber": "...",
    "seriesNumber": "...",
    "color": "...",
    "playerName": "...",
    "team": "...",
    "features": ["..."],
    "condition": "...",
    "otherInfo": "..."
  }
}`
