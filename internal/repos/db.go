package repos

import (
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is its own database
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed demo products if the catalog is empty
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS products(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  external_id INTEGER UNIQUE,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL CHECK (price >= 0),
  discount_percentage REAL,
  rating REAL NOT NULL DEFAULT 0,
  stock INTEGER NOT NULL DEFAULT 0,
  tags_json TEXT NOT NULL DEFAULT '[]',
  brand TEXT NOT NULL DEFAULT '',
  sku TEXT NOT NULL DEFAULT '',
  weight REAL,
  warranty_information TEXT NOT NULL DEFAULT '',
  shipping_information TEXT NOT NULL DEFAULT '',
  availability_status TEXT NOT NULL DEFAULT '',
  return_policy TEXT NOT NULL DEFAULT '',
  minimum_order_quantity INTEGER,
  images_json TEXT NOT NULL DEFAULT '[]',
  thumbnail TEXT NOT NULL DEFAULT '',
  dimensions_json TEXT,
  meta_json TEXT,
  reviews_json TEXT NOT NULL DEFAULT '[]',
  created_at TEXT DEFAULT (strftime('%Y-%m-%dT%H:%M:%S','now')),
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(LOWER(category));
CREATE INDEX IF NOT EXISTS idx_products_brand    ON products(LOWER(brand));
CREATE INDEX IF NOT EXISTS idx_products_title    ON products(LOWER(title));
CREATE INDEX IF NOT EXISTS idx_products_sku      ON products(sku);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo products")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO products(external_id,title,description,category,price,discount_percentage,rating,stock,tags_json,brand,sku,availability_status,images_json,thumbnail,created_at) VALUES
	  (1,'Essence Mascara Lash Princess','Popular mascara known for its volumizing and lengthening effects.','beauty',9.99,7.17,4.94,5,'["beauty","mascara"]','Essence','RCH45Q1A','Low Stock','["products/1/1.png"]','products/1/thumbnail.png','2024-05-23T08:56:21'),
	  (2,'Eyeshadow Palette with Mirror','Versatile range of eyeshadow shades with a built-in mirror.','beauty',19.99,5.5,3.28,44,'["beauty","eyeshadow"]','Glamour Beauty','MVCFH27F','In Stock','["products/2/1.png"]','products/2/thumbnail.png','2024-05-23T08:56:21'),
	  (3,'Powder Canister','Fine setting powder for a smooth, matte finish.','beauty',14.99,18.14,3.82,59,'["beauty","face powder"]','Velvet Touch','9EN8WLT2','In Stock','["products/3/1.png"]','products/3/thumbnail.png','2024-05-23T08:56:21'),
	  (6,'Calvin Klein CK One','Classic unisex fragrance with a fresh and clean scent.','fragrances',49.99,0.32,4.85,17,'["fragrances","perfumes"]','Calvin Klein','DZM2JQZE','In Stock','["products/6/1.png"]','products/6/thumbnail.png','2024-05-23T08:56:21'),
	  (11,'Annibale Colombo Bed','Luxurious bed crafted with high-quality materials.','furniture',1899.99,0.29,4.77,47,'["furniture","beds"]','Annibale Colombo','4KMDTZWF','In Stock','["products/11/1.png"]','products/11/thumbnail.png','2024-05-23T08:56:21'),
	  (12,'Annibale Colombo Sofa','Sophisticated sofa with a comfortable and elegant design.','furniture',2499.99,18.54,3.92,16,'["furniture","sofas"]','Annibale Colombo','BWWA2MSO','In Stock','["products/12/1.png"]','products/12/thumbnail.png','2024-05-23T08:56:21'),
	  (78,'Apple MacBook Pro 14 Inch Space Grey','Powerful laptop with the M1 Pro chip, 14-inch display.','laptops',1999.99,9.3,3.65,39,'["computers","laptops"]','Apple','LH9Z9N6W','In Stock','["products/78/1.png"]','products/78/thumbnail.png','2024-05-23T08:56:21'),
	  (121,'iPhone 5s','Classic smartphone with a 4-inch Retina display.','smartphones',199.99,12.91,2.83,25,'["smartphones","apple"]','Apple','4YJ2EWDC','In Stock','["products/121/1.png"]','products/121/thumbnail.png','2024-05-23T08:56:21'),
	  (122,'iPhone 6','Stylish smartphone with a larger display.','smartphones',299.99,6.69,3.41,60,'["smartphones","apple"]','Apple','5XWFC4YD','In Stock','["products/122/1.png"]','products/122/thumbnail.png','2024-05-23T08:56:21'),
	  (100,'Apple Airpods','Wireless earbuds with seamless Apple integration.','mobile-accessories',129.99,10.24,4.38,67,'["electronics","audio"]','Apple','SGAC4HLF','In Stock','["products/100/1.png"]','products/100/thumbnail.png','2024-05-23T08:56:21')`)
	return tx.Commit()
}
